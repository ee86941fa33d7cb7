package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/mail"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/queue"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// BookingDeps bundles the collaborators of the booking services. Settings
// and Events are optional.
type BookingDeps struct {
	Slots       SlotStore
	Teachers    TeacherReader
	Settings    SettingsReader
	Mailer      mail.Sender
	Events      EventPublisher
	Validator   *Validator
	Logger      *zap.Logger
	PublicURL   string
	MailTimeout time.Duration
}

// BookingService drives a slot through reserve, verify, accept and cancel.
// It keeps no state between calls; every decision is made by conditional
// writes in the SlotStore.
type BookingService struct {
	slots     SlotStore
	settings  SettingsReader
	events    EventPublisher
	validator *Validator
	notify    *notifier
	logger    *zap.Logger
	now       func() time.Time
}

// ReserveResult is returned by Reserve.
type ReserveResult struct {
	Slot              *model.Slot
	VerificationToken string
}

// VerifyResult is returned by Verify.
type VerifyResult struct {
	Slot       *model.Slot
	VerifiedAt time.Time
}

// NewBookingService constructs a BookingService and panics when a required
// dependency is missing.
func NewBookingService(d BookingDeps) *BookingService {
	if d.Slots == nil || d.Teachers == nil || d.Mailer == nil || d.Logger == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if d.Events == nil {
		d.Events = NoopPublisher
	}
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	return &BookingService{
		slots:     d.Slots,
		settings:  d.Settings,
		events:    d.Events,
		validator: d.Validator,
		notify: &notifier{
			sender:    d.Mailer,
			teachers:  d.Teachers,
			publicURL: strings.TrimRight(d.PublicURL, "/"),
			timeout:   d.MailTimeout,
			logger:    d.Logger,
		},
		logger: d.Logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Reserve validates the input and claims the slot if it is still free. The
// claim is one conditional UPDATE; a lost race or an unknown slot yields a
// ConflictError and leaves the existing booking untouched.
func (s *BookingService) Reserve(ctx context.Context, in BookingInput) (*ReserveResult, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkBookingWindow(ctx); err != nil {
		return nil, err
	}

	token, err := utils.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	slot, err := s.slots.Claim(ctx, repository.ClaimParams{
		SlotID:  in.SlotID,
		Visitor: in.visitor(),
		Status:  model.SlotReserved,
		Token:   &token,
		Now:     s.now(),
	})
	if errors.Is(err, repository.ErrSlotUnavailable) {
		s.logger.Info("reserve rejected, slot unavailable", zap.Int64("slot_id", in.SlotID))
		return nil, &ConflictError{Message: MsgSlotUnavailable}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot reserved",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.String("visitor_type", in.VisitorType))
	s.notify.verification(ctx, *slot, token)
	s.publish(ctx, queue.EventSlotReserved, slot, "visitor")

	return &ReserveResult{Slot: slot, VerificationToken: token}, nil
}

// Verify marks the booking carrying token as email-verified. Calling it
// again refreshes the timestamp. When the teacher already accepted the
// booking, the pending confirmation mail goes out now.
func (s *BookingService) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if !utils.IsVerificationToken(token) {
		return nil, &NotFoundError{Message: MsgInvalidLink}
	}
	slot, err := s.slots.GetBookedByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: MsgInvalidLink}
	}
	if err != nil {
		return nil, err
	}

	firstTime := slot.VerifiedAt == nil
	now := s.now()
	if err := s.slots.MarkVerified(ctx, slot.ID, token, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgInvalidLink}
		}
		return nil, err
	}
	slot.VerifiedAt = &now
	slot.UpdatedAt = now

	s.logger.Info("slot verified", zap.Int64("slot_id", slot.ID), zap.Bool("first_time", firstTime))
	if slot.IsConfirmed() && slot.ConfirmationSentAt == nil {
		s.sendConfirmation(ctx, slot)
	}
	if firstTime {
		s.notify.teacherNotice(ctx, *slot)
		s.publish(ctx, queue.EventSlotVerified, slot, "visitor")
	}
	return &VerifyResult{Slot: slot, VerifiedAt: now}, nil
}

// Accept confirms a verified booking of teacherID. A teacherID of zero is
// used for admins and skips the ownership check.
func (s *BookingService) Accept(ctx context.Context, slotID, teacherID int64) (*model.Slot, error) {
	slot, err := s.ownedSlot(ctx, slotID, teacherID)
	if err != nil {
		return nil, err
	}
	if !slot.Booked {
		return nil, &NotFoundError{Message: MsgSlotNotFound}
	}
	if slot.VerifiedAt == nil {
		return nil, &ConflictError{Message: MsgNotVerified}
	}

	if err := s.slots.Confirm(ctx, slot.ID, teacherID, s.now()); err != nil {
		if errors.Is(err, repository.ErrSlotUnavailable) {
			return nil, &ConflictError{Message: MsgSlotStateChanged}
		}
		return nil, err
	}
	if slot, err = s.slots.GetByID(ctx, slot.ID); err != nil {
		return nil, err
	}

	s.logger.Info("slot confirmed", zap.Int64("slot_id", slot.ID), zap.Int64("teacher_id", slot.TeacherID))
	if slot.ConfirmationSentAt == nil {
		s.sendConfirmation(ctx, slot)
	}
	s.publish(ctx, queue.EventSlotConfirmed, slot, actor(teacherID))
	return slot, nil
}

// Cancel resets a slot to unbooked. Admins pass teacherID zero and may
// cancel any slot; teachers only their own. A verified visitor receives a
// cancellation notice.
func (s *BookingService) Cancel(ctx context.Context, slotID, teacherID int64) (*model.Slot, error) {
	now := s.now()
	prev, err := s.slots.Cancel(ctx, slotID, teacherID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: MsgSlotNotFound}
	}
	if err != nil {
		return nil, err
	}

	reset := &model.Slot{ID: prev.ID, TeacherID: prev.TeacherID, Date: prev.Date, Time: prev.Time, UpdatedAt: now}
	if !prev.Booked {
		return reset, nil
	}

	s.logger.Info("slot cancelled",
		zap.Int64("slot_id", prev.ID),
		zap.Int64("teacher_id", prev.TeacherID),
		zap.String("actor", actor(teacherID)))
	if prev.VerifiedAt != nil && prev.Email != nil {
		if s.notify.cancellation(ctx, *prev) {
			if err := s.slots.MarkCancellationSent(ctx, prev.ID, now); err != nil {
				s.logger.Warn("mark cancellation sent failed", zap.Int64("slot_id", prev.ID), zap.Error(err))
			} else {
				reset.CancellationSentAt = &now
			}
		}
	}
	s.publish(ctx, queue.EventSlotCancelled, reset, actor(teacherID))
	return reset, nil
}

func (s *BookingService) ownedSlot(ctx context.Context, slotID, teacherID int64) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: MsgSlotNotFound}
	}
	if err != nil {
		return nil, err
	}
	if teacherID != 0 && slot.TeacherID != teacherID {
		return nil, &NotFoundError{Message: MsgSlotNotFound}
	}
	return slot, nil
}

// sendConfirmation sends the confirmation mail at most once per booking
// cycle. The confirmation_sent_at column is claimed before sending, so two
// concurrent callers cannot both send.
func (s *BookingService) sendConfirmation(ctx context.Context, slot *model.Slot) {
	now := s.now()
	claimed, err := s.slots.MarkConfirmationSent(ctx, slot.ID, now)
	if err != nil {
		s.logger.Warn("claim confirmation mail failed", zap.Int64("slot_id", slot.ID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}
	slot.ConfirmationSentAt = &now
	s.notify.confirmation(ctx, *slot)
}

func (s *BookingService) checkBookingWindow(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !st.BookingOpen(time.Now()) {
		return &ConflictError{Message: MsgBookingClosed}
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, typ string, slot *model.Slot, by string) {
	ev := queue.SlotEvent{
		Type:       typ,
		SlotID:     slot.ID,
		TeacherID:  slot.TeacherID,
		Actor:      by,
		OccurredAt: s.now(),
	}
	if slot.Status != nil {
		ev.Status = string(*slot.Status)
	}
	_ = s.events.Publish(context.WithoutCancel(ctx), ev)
}

func actor(teacherID int64) string {
	if teacherID == 0 {
		return model.RoleAdmin
	}
	return model.RoleTeacher
}
