package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/config"
)

func TestNewSenderSkipsWithoutTransport(t *testing.T) {
	s, err := NewSender(config.MailConfig{}, zap.NewNop())
	require.NoError(t, err)

	res, err := s.Send(context.Background(), Message{To: "a@x.de", Subject: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.MessageID)
}

func TestNewSenderUnknownTransport(t *testing.T) {
	_, err := NewSender(config.MailConfig{Transport: "pigeon"}, zap.NewNop())
	assert.Error(t, err)
}

func TestConsoleSender(t *testing.T) {
	s := NewConsoleSender(zap.NewNop())

	res, err := s.Send(context.Background(), Message{To: "a@x.de", Subject: "Betreff", Text: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)
	assert.False(t, res.Skipped)

	_, err = s.Send(context.Background(), Message{To: "not an address"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Betreff", sent[0].Subject)
}

func TestRender(t *testing.T) {
	msg, err := Render(TemplateVerification, "a@x.de", TemplateData{
		VisitorName: "Family A",
		TeacherName: "Frau Schmidt",
		Room:        "B204",
		Date:        "2025-11-20",
		Time:        "16:00 - 16:15",
		ClassName:   "5a",
		Link:        "https://portal.example/verify/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@x.de", msg.To)
	assert.Equal(t, subjects[TemplateVerification], msg.Subject)
	assert.Contains(t, msg.Text, "Family A")
	assert.Contains(t, msg.Text, "https://portal.example/verify/abc")
	assert.Contains(t, msg.Text, "Raum B204")
	assert.Contains(t, msg.HTML, `href="https://portal.example/verify/abc"`)
}

func TestRenderEscapesHTML(t *testing.T) {
	msg, err := Render(TemplateTeacherNotice, "t@x.de", TemplateData{
		TeacherName: "Herr Meyer",
		VisitorName: "<script>",
		Message:     "a & b",
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("nope", "a@x.de", TemplateData{})
	assert.Error(t, err)
}
