// Package service implements the slot booking life cycle (reserve, verify,
// accept, cancel), booking requests and slot generation. Handlers call
// these services instead of touching slot rows directly, so every route
// shares one set of rules.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/queue"
	"github.com/iliyamo/elternsprechtag/internal/repository"
)

// SlotStore is the slot persistence used by the booking services.
// *repository.SlotRepo implements it.
type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetBookedByToken(ctx context.Context, token string) (*model.Slot, error)
	Claim(ctx context.Context, p repository.ClaimParams) (*model.Slot, error)
	MarkVerified(ctx context.Context, id int64, token string, at time.Time) error
	Confirm(ctx context.Context, id, teacherID int64, at time.Time) error
	MarkConfirmationSent(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkCancellationSent(ctx context.Context, id int64, at time.Time) error
	Cancel(ctx context.Context, id, teacherID int64, at time.Time) (*model.Slot, error)
}

// TeacherReader resolves teacher details for notifications.
type TeacherReader interface {
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
}

// SettingsReader exposes the event settings (booking window, slot length).
type SettingsReader interface {
	Get(ctx context.Context) (model.Settings, error)
}

// EventPublisher receives slot lifecycle events. *queue.Publisher
// implements it; publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SlotEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.SlotEvent) error { return nil }

// NoopPublisher is used when event publishing is disabled.
var NoopPublisher EventPublisher = noopPublisher{}
