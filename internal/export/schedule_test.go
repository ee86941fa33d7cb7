package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

func TestSchedulePDF(t *testing.T) {
	status := model.SlotConfirmed
	vt := model.VisitorParent
	parent, student, class, email := "Jürgen Groß", "Lena Groß", "10b", "jg@example.de"
	now := time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)
	slots := []model.Slot{{
		ID: 1, TeacherID: 1, Date: "2025-11-20", Time: "16:00 - 16:15", Booked: true,
		Status: &status, VisitorType: &vt, ParentName: &parent, StudentName: &student,
		ClassName: &class, Email: &email, VerifiedAt: &now,
	}}

	out, err := SchedulePDF(model.Teacher{ID: 1, Name: "Frau Müller", Room: "B204"}, slots, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := SchedulePDF(model.Teacher{ID: 2, Name: "Herr Weiß"}, nil, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "20.11.2025", germanDate("2025-11-20"))
	assert.Equal(t, "bad", germanDate("bad"))
	assert.Equal(t, "frei", statusLabel(model.Slot{}))
	assert.Equal(t, "reserviert", statusLabel(model.Slot{Booked: true}))

	company, trainee := "Muster GmbH", "Lea"
	v := model.Visitor{Type: model.VisitorCompany, CompanyName: &company, TraineeName: &trainee}
	assert.Equal(t, "Muster GmbH (Lea)", visitorLabel(v))
	assert.Equal(t, "-", visitorLabel(model.Visitor{}))
}
