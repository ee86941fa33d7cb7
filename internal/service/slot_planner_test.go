package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

func TestTimeRanges(t *testing.T) {
	ranges, err := TimeRanges(model.SystemVollzeit, 15)
	require.NoError(t, err)
	require.Len(t, ranges, 12)
	assert.Equal(t, "16:00 - 16:15", ranges[0])
	assert.Equal(t, "18:45 - 19:00", ranges[11])

	ranges, err = TimeRanges(model.SystemDual, 20)
	require.NoError(t, err)
	require.Len(t, ranges, 9)
	assert.Equal(t, "14:00 - 14:20", ranges[0])
	assert.Equal(t, "16:40 - 17:00", ranges[8])

	ranges, err = TimeRanges(model.SystemDual, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00 - 14:50", "14:50 - 15:40", "15:40 - 16:30"}, ranges)
}

func TestTimeRanges_Invalid(t *testing.T) {
	_, err := TimeRanges("teilzeit", 15)
	assert.Error(t, err)
	_, err = TimeRanges(model.SystemDual, 4)
	assert.Error(t, err)
	_, err = TimeRanges(model.SystemDual, 61)
	assert.Error(t, err)
}

type recordingCreator struct {
	calls map[int64][]string
	date  string
}

func (r *recordingCreator) CreateMany(_ context.Context, teacherID int64, date string, times []string) (int, error) {
	if r.calls == nil {
		r.calls = map[int64][]string{}
	}
	r.calls[teacherID] = times
	r.date = date
	return len(times), nil
}

func TestSlotPlanner_GenerateAll(t *testing.T) {
	eventDate := "2025-11-20"
	creator := &recordingCreator{}
	planner := NewSlotPlanner(creator, memTeachers{
		1: {ID: 1, System: model.SystemVollzeit},
		2: {ID: 2, System: model.SystemDual},
	}, staticSettings{s: model.Settings{EventDate: &eventDate, SlotMinutes: 30}}, zap.NewNop())

	res, err := planner.Generate(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, eventDate, res.Date)
	assert.Equal(t, 2, res.Teachers)
	assert.Equal(t, 12, res.Created)
	assert.Equal(t, "16:00 - 16:30", creator.calls[1][0])
	assert.Equal(t, "14:00 - 14:30", creator.calls[2][0])
}

func TestSlotPlanner_GenerateOne(t *testing.T) {
	creator := &recordingCreator{}
	planner := NewSlotPlanner(creator, memTeachers{1: {ID: 1, System: model.SystemDual}},
		staticSettings{}, zap.NewNop())

	res, err := planner.Generate(context.Background(), 1, "2025-12-01")
	require.NoError(t, err)
	assert.Equal(t, 12, res.Created)
	assert.Equal(t, "2025-12-01", creator.date)

	_, err = planner.Generate(context.Background(), 9, "2025-12-01")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSlotPlanner_GenerateNeedsDate(t *testing.T) {
	planner := NewSlotPlanner(&recordingCreator{}, memTeachers{}, staticSettings{}, zap.NewNop())

	var verr *ValidationError
	_, err := planner.Generate(context.Background(), 0, "")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")

	_, err = planner.Generate(context.Background(), 0, "20.11.2025")
	require.ErrorAs(t, err, &verr)
}
