package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/repository"
)

// Conference time window per teaching system.
var systemWindows = map[string][2]string{
	model.SystemDual:     {"14:00", "17:00"},
	model.SystemVollzeit: {"16:00", "19:00"},
}

// Slot length bounds in minutes.
const (
	DefaultSlotMinutes = 15
	MinSlotMinutes     = 5
	MaxSlotMinutes     = 60
)

// TimeRanges splits the window of the teaching system into consecutive
// ranges of the given length, formatted "HH:MM - HH:MM". A trailing range
// that would end after the window is dropped.
func TimeRanges(system string, minutes int) ([]string, error) {
	window, ok := systemWindows[system]
	if !ok {
		return nil, fmt.Errorf("unknown teaching system %q", system)
	}
	if minutes < MinSlotMinutes || minutes > MaxSlotMinutes {
		return nil, fmt.Errorf("slot length %d out of range", minutes)
	}
	start, _ := time.Parse("15:04", window[0])
	end, _ := time.Parse("15:04", window[1])
	step := time.Duration(minutes) * time.Minute

	var out []string
	for t := start; !t.Add(step).After(end); t = t.Add(step) {
		out = append(out, t.Format("15:04")+" - "+t.Add(step).Format("15:04"))
	}
	return out, nil
}

// SlotCreator inserts generated slots. *repository.SlotRepo implements it.
type SlotCreator interface {
	CreateMany(ctx context.Context, teacherID int64, date string, times []string) (int, error)
}

// TeacherLister lists and resolves teachers. *repository.TeacherRepo
// implements it.
type TeacherLister interface {
	TeacherReader
	List(ctx context.Context) ([]model.Teacher, error)
}

// SlotPlanner generates the empty slots of the conference day.
type SlotPlanner struct {
	slots    SlotCreator
	teachers TeacherLister
	settings SettingsReader
	logger   *zap.Logger
}

func NewSlotPlanner(slots SlotCreator, teachers TeacherLister, settings SettingsReader, logger *zap.Logger) *SlotPlanner {
	return &SlotPlanner{slots: slots, teachers: teachers, settings: settings, logger: logger}
}

// GenerateResult summarises a generation run.
type GenerateResult struct {
	Date     string `json:"date"`
	Teachers int    `json:"teachers"`
	Created  int    `json:"created"`
}

// Generate creates the missing slots for one teacher (or all teachers when
// teacherID is zero) on date. An empty date falls back to the configured
// event date. Existing slots are kept as they are.
func (p *SlotPlanner) Generate(ctx context.Context, teacherID int64, date string) (*GenerateResult, error) {
	st, err := p.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" && st.EventDate != nil {
		date = *st.EventDate
	}
	if date == "" {
		return nil, invalid(map[string]string{"date": "Kein Datum angegeben und kein Veranstaltungsdatum festgelegt"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, invalid(map[string]string{"date": "date muss im Format JJJJ-MM-TT angegeben werden"})
	}
	minutes := st.SlotMinutes
	if minutes == 0 {
		minutes = DefaultSlotMinutes
	}

	var teachers []model.Teacher
	if teacherID != 0 {
		t, err := p.teachers.GetByID(ctx, teacherID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgTeacherNotFound}
		}
		if err != nil {
			return nil, err
		}
		teachers = []model.Teacher{*t}
	} else if teachers, err = p.teachers.List(ctx); err != nil {
		return nil, err
	}

	res := &GenerateResult{Date: date, Teachers: len(teachers)}
	for _, t := range teachers {
		ranges, err := TimeRanges(t.System, minutes)
		if err != nil {
			return nil, invalid(map[string]string{"system": err.Error()})
		}
		n, err := p.slots.CreateMany(ctx, t.ID, date, ranges)
		if err != nil {
			return nil, err
		}
		res.Created += n
	}
	p.logger.Info("slots generated",
		zap.String("date", date),
		zap.Int("teachers", res.Teachers),
		zap.Int("created", res.Created))
	return res, nil
}
