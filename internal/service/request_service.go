package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/queue"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// RequestStore is the persistence of booking requests.
// *repository.BookingRequestRepo implements it.
type RequestStore interface {
	Create(ctx context.Context, teacherID int64, requestedTime string, v model.Visitor, token string, now time.Time) (*model.BookingRequest, error)
	GetByID(ctx context.Context, id int64) (*model.BookingRequest, error)
	GetByToken(ctx context.Context, token string) (*model.BookingRequest, error)
	MarkVerified(ctx context.Context, id int64, at time.Time) error
	Resolve(ctx context.Context, id, teacherID int64, status model.RequestStatus, slotID *int64, at time.Time) error
}

// RequestService handles booking requests: a visitor asks a teacher for a
// time window, verifies the email address, and the teacher assigns a free
// slot or declines.
type RequestService struct {
	requests RequestStore
	teachers TeacherReader
	bookings *BookingService
}

// NewRequestService shares the slot store, mailer and validator of bookings.
func NewRequestService(requests RequestStore, teachers TeacherReader, bookings *BookingService) *RequestService {
	if requests == nil || teachers == nil || bookings == nil {
		panic("nil dependency passed to NewRequestService")
	}
	return &RequestService{requests: requests, teachers: teachers, bookings: bookings}
}

// Create stores a pending request and mails the verification link.
func (s *RequestService) Create(ctx context.Context, in RequestInput) (*model.BookingRequest, error) {
	b := s.bookings
	in.normalize()
	in.RequestedTime = strings.TrimSpace(in.RequestedTime)
	if err := b.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := b.checkBookingWindow(ctx); err != nil {
		return nil, err
	}
	if _, err := s.teachers.GetByID(ctx, in.TeacherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgTeacherNotFound}
		}
		return nil, err
	}

	token, err := utils.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	req, err := s.requests.Create(ctx, in.TeacherID, in.RequestedTime, in.visitor(), token, b.now())
	if err != nil {
		return nil, err
	}

	b.logger.Info("booking request created", zap.Int64("request_id", req.ID), zap.Int64("teacher_id", req.TeacherID))
	b.notify.requestVerification(ctx, *req, token)
	s.publish(ctx, queue.EventRequestCreated, req, "visitor")
	return req, nil
}

// Verify marks the request carrying token as email-verified.
func (s *RequestService) Verify(ctx context.Context, token string) (*model.BookingRequest, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if !utils.IsVerificationToken(token) {
		return nil, &NotFoundError{Message: MsgInvalidLink}
	}
	req, err := s.requests.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: MsgInvalidLink}
	}
	if err != nil {
		return nil, err
	}
	now := s.bookings.now()
	if err := s.requests.MarkVerified(ctx, req.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgInvalidLink}
		}
		return nil, err
	}
	req.VerifiedAt = &now
	return req, nil
}

// Assign books slotID for a verified pending request of teacherID. The slot
// is claimed with the request's visitor data and confirmed immediately; the
// confirmation mail follows the same at-most-once rule as Accept.
func (s *RequestService) Assign(ctx context.Context, requestID, teacherID, slotID int64) (*model.Slot, error) {
	b := s.bookings
	req, err := s.ownedRequest(ctx, requestID, teacherID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, &ConflictError{Message: MsgRequestResolved}
	}
	if req.VerifiedAt == nil {
		return nil, &ConflictError{Message: MsgNotVerified}
	}

	now := b.now()
	slot, err := b.slots.Claim(ctx, repository.ClaimParams{
		SlotID:     slotID,
		TeacherID:  req.TeacherID,
		Visitor:    req.Visitor,
		Status:     model.SlotConfirmed,
		VerifiedAt: req.VerifiedAt,
		Now:        now,
	})
	if errors.Is(err, repository.ErrSlotUnavailable) {
		return nil, &ConflictError{Message: MsgSlotUnavailable}
	}
	if err != nil {
		return nil, err
	}

	if err := s.requests.Resolve(ctx, req.ID, req.TeacherID, model.RequestAccepted, &slot.ID, now); err != nil {
		// Another caller resolved the request first; release the slot again.
		if _, cerr := b.slots.Cancel(ctx, slot.ID, req.TeacherID, now); cerr != nil {
			b.logger.Error("release slot after failed assignment", zap.Int64("slot_id", slot.ID), zap.Error(cerr))
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: MsgRequestResolved}
		}
		return nil, err
	}

	b.logger.Info("booking request assigned",
		zap.Int64("request_id", req.ID),
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", req.TeacherID))
	b.sendConfirmation(ctx, slot)
	req.Status = model.RequestAccepted
	req.AssignedSlotID = &slot.ID
	s.publish(ctx, queue.EventRequestAssigned, req, actor(teacherID))
	b.publish(ctx, queue.EventSlotConfirmed, slot, actor(teacherID))
	return slot, nil
}

// Decline closes a pending request without a slot.
func (s *RequestService) Decline(ctx context.Context, requestID, teacherID int64) (*model.BookingRequest, error) {
	req, err := s.ownedRequest(ctx, requestID, teacherID)
	if err != nil {
		return nil, err
	}
	now := s.bookings.now()
	if err := s.requests.Resolve(ctx, req.ID, req.TeacherID, model.RequestDeclined, nil, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: MsgRequestResolved}
		}
		return nil, err
	}
	req.Status = model.RequestDeclined
	req.UpdatedAt = now
	s.publish(ctx, queue.EventRequestDeclined, req, actor(teacherID))
	return req, nil
}

func (s *RequestService) ownedRequest(ctx context.Context, requestID, teacherID int64) (*model.BookingRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: MsgRequestNotFound}
	}
	if err != nil {
		return nil, err
	}
	if teacherID != 0 && req.TeacherID != teacherID {
		return nil, &NotFoundError{Message: MsgRequestNotFound}
	}
	return req, nil
}

func (s *RequestService) publish(ctx context.Context, typ string, req *model.BookingRequest, by string) {
	_ = s.bookings.events.Publish(context.WithoutCancel(ctx), queue.SlotEvent{
		Type:       typ,
		RequestID:  req.ID,
		TeacherID:  req.TeacherID,
		Status:     string(req.Status),
		Actor:      by,
		OccurredAt: s.bookings.now(),
	})
}
