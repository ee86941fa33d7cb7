package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/elternsprechtag/internal/mail"
	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/queue"
	"github.com/iliyamo/elternsprechtag/internal/repository"
)

// memSlotStore mimics the conditional updates of repository.SlotRepo in
// memory.
type memSlotStore struct {
	mu    sync.Mutex
	slots map[int64]*model.Slot
}

func newMemSlotStore(slots ...model.Slot) *memSlotStore {
	m := &memSlotStore{slots: map[int64]*model.Slot{}}
	for i := range slots {
		s := slots[i]
		m.slots[s.ID] = &s
	}
	return m
}

func (m *memSlotStore) get(id int64) *model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil
	}
	c := *s
	return &c
}

func (m *memSlotStore) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	if s := m.get(id); s != nil {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memSlotStore) GetBookedByToken(_ context.Context, token string) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.Booked && s.VerificationToken != nil && *s.VerificationToken == token {
			c := *s
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSlotStore) Claim(_ context.Context, p repository.ClaimParams) (*model.Slot, error) {
	m.mu.Lock()
	s, ok := m.slots[p.SlotID]
	if !ok || s.Booked || (p.TeacherID != 0 && s.TeacherID != p.TeacherID) {
		m.mu.Unlock()
		return nil, repository.ErrSlotUnavailable
	}
	status := p.Status
	v := p.Visitor
	s.Booked = true
	s.Status = &status
	s.VisitorType = &v.Type
	s.ParentName, s.StudentName = v.ParentName, v.StudentName
	s.CompanyName, s.TraineeName, s.RepresentativeName = v.CompanyName, v.TraineeName, v.RepresentativeName
	s.ClassName, s.Email, s.Message = &v.ClassName, &v.Email, v.Message
	s.VerificationToken = p.Token
	s.VerificationSentAt = nil
	if p.Token != nil {
		now := p.Now
		s.VerificationSentAt = &now
	}
	s.VerifiedAt = p.VerifiedAt
	s.ConfirmationSentAt, s.CancellationSentAt = nil, nil
	s.UpdatedAt = p.Now
	m.mu.Unlock()
	return m.GetByID(context.Background(), p.SlotID)
}

func (m *memSlotStore) MarkVerified(_ context.Context, id int64, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !s.Booked || s.VerificationToken == nil || *s.VerificationToken != token {
		return repository.ErrNotFound
	}
	s.VerifiedAt = &at
	s.UpdatedAt = at
	return nil
}

func (m *memSlotStore) Confirm(_ context.Context, id, teacherID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !s.Booked || s.VerifiedAt == nil || (teacherID != 0 && s.TeacherID != teacherID) {
		return repository.ErrSlotUnavailable
	}
	st := model.SlotConfirmed
	s.Status = &st
	s.UpdatedAt = at
	return nil
}

func (m *memSlotStore) MarkConfirmationSent(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !s.IsConfirmed() || s.VerifiedAt == nil || s.ConfirmationSentAt != nil {
		return false, nil
	}
	s.ConfirmationSentAt = &at
	return true, nil
}

func (m *memSlotStore) MarkCancellationSent(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[id]; ok && !s.Booked {
		s.CancellationSentAt = &at
	}
	return nil
}

func (m *memSlotStore) Cancel(_ context.Context, id, teacherID int64, at time.Time) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || (teacherID != 0 && s.TeacherID != teacherID) {
		return nil, repository.ErrNotFound
	}
	prev := *s
	m.slots[id] = &model.Slot{ID: s.ID, TeacherID: s.TeacherID, Date: s.Date, Time: s.Time, UpdatedAt: at}
	return &prev, nil
}

// memRequestStore keeps booking requests in memory.
type memRequestStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*model.BookingRequest
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{items: map[int64]*model.BookingRequest{}}
}

func (m *memRequestStore) Create(_ context.Context, teacherID int64, requestedTime string, v model.Visitor, token string, now time.Time) (*model.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := &model.BookingRequest{
		ID: m.nextID, TeacherID: teacherID, RequestedTime: requestedTime, Status: model.RequestPending,
		Visitor: v, VerificationToken: &token, VerificationSentAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	m.items[r.ID] = r
	c := *r
	return &c, nil
}

func (m *memRequestStore) GetByID(_ context.Context, id int64) (*model.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *memRequestStore) GetByToken(_ context.Context, token string) (*model.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.VerificationToken != nil && *r.VerificationToken == token {
			c := *r
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRequestStore) MarkVerified(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.VerifiedAt = &at
	return nil
}

func (m *memRequestStore) Resolve(_ context.Context, id, teacherID int64, status model.RequestStatus, slotID *int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok || r.TeacherID != teacherID || r.Status != model.RequestPending {
		return repository.ErrConflict
	}
	r.Status = status
	r.AssignedSlotID = slotID
	r.UpdatedAt = at
	return nil
}

type memTeachers map[int64]model.Teacher

func (m memTeachers) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	t, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m memTeachers) List(context.Context) ([]model.Teacher, error) {
	out := make([]model.Teacher, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	return out, nil
}

type staticSettings struct {
	s   model.Settings
	err error
}

func (s staticSettings) Get(context.Context) (model.Settings, error) { return s.s, s.err }

// recordingSender records every message and optionally fails.
type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	fail bool
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) (mail.Result, error) {
	if r.fail {
		return mail.Result{}, errors.New("smtp down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return mail.Result{MessageID: "id"}, nil
}

func (r *recordingSender) bySubject(subject string) []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []mail.Message
	for _, m := range r.sent {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.SlotEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.SlotEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
