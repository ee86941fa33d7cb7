package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/mail"
	"github.com/iliyamo/elternsprechtag/internal/model"
)

// notifier renders and sends the notification mails. Every method is
// best-effort: failures are logged and never returned to the caller.
type notifier struct {
	sender    mail.Sender
	teachers  TeacherReader
	publicURL string
	timeout   time.Duration
	logger    *zap.Logger
}

func (n *notifier) teacher(ctx context.Context, id int64) model.Teacher {
	t, err := n.teachers.GetByID(ctx, id)
	if err != nil {
		n.logger.Warn("load teacher for mail failed", zap.Int64("teacher_id", id), zap.Error(err))
		return model.Teacher{ID: id}
	}
	return *t
}

func slotData(s model.Slot, t model.Teacher) mail.TemplateData {
	v := s.Visitor()
	d := mail.TemplateData{
		VisitorName: v.DisplayName(),
		ClassName:   v.ClassName,
		TeacherName: t.Name,
		Room:        t.Room,
		Date:        s.Date,
		Time:        s.Time,
	}
	if v.StudentName != nil {
		d.StudentName = *v.StudentName
	}
	if v.CompanyName != nil {
		d.CompanyName = *v.CompanyName
	}
	if v.TraineeName != nil {
		d.TraineeName = *v.TraineeName
	}
	if v.Message != nil {
		d.Message = *v.Message
	}
	return d
}

// send renders and sends one message. It reports whether the transport
// accepted the message.
func (n *notifier) send(ctx context.Context, template, to string, data mail.TemplateData, fields ...zap.Field) bool {
	fields = append(fields, zap.String("template", template))
	if to == "" {
		n.logger.Warn("mail without recipient, skipping", fields...)
		return false
	}
	msg, err := mail.Render(template, to, data)
	if err != nil {
		n.logger.Error("render mail failed", append(fields, zap.Error(err))...)
		return false
	}
	// Mail outlives a client that disconnects mid-request.
	ctx = context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	res, err := n.sender.Send(ctx, msg)
	if err != nil {
		n.logger.Warn("send mail failed", append(fields, zap.Error(err))...)
		return false
	}
	if res.Skipped {
		return false
	}
	n.logger.Info("mail sent", append(fields, zap.String("message_id", res.MessageID))...)
	return true
}

func (n *notifier) verifyLink(kind, token string) string {
	return n.publicURL + "/" + kind + "/" + token
}

func (n *notifier) verification(ctx context.Context, s model.Slot, token string) {
	d := slotData(s, n.teacher(ctx, s.TeacherID))
	d.Link = n.verifyLink("verify", token)
	n.send(ctx, mail.TemplateVerification, s.Visitor().Email, d, zap.Int64("slot_id", s.ID))
}

func (n *notifier) confirmation(ctx context.Context, s model.Slot) {
	d := slotData(s, n.teacher(ctx, s.TeacherID))
	n.send(ctx, mail.TemplateConfirmation, s.Visitor().Email, d, zap.Int64("slot_id", s.ID))
}

// cancellation reports whether the notice was handed to the transport.
func (n *notifier) cancellation(ctx context.Context, s model.Slot) bool {
	d := slotData(s, n.teacher(ctx, s.TeacherID))
	return n.send(ctx, mail.TemplateCancellation, s.Visitor().Email, d, zap.Int64("slot_id", s.ID))
}

func (n *notifier) teacherNotice(ctx context.Context, s model.Slot) {
	t := n.teacher(ctx, s.TeacherID)
	if t.Email == nil || *t.Email == "" {
		return
	}
	n.send(ctx, mail.TemplateTeacherNotice, *t.Email, slotData(s, t), zap.Int64("slot_id", s.ID))
}

func (n *notifier) requestVerification(ctx context.Context, r model.BookingRequest, token string) {
	t := n.teacher(ctx, r.TeacherID)
	d := mail.TemplateData{
		VisitorName:  r.Visitor.DisplayName(),
		ClassName:    r.ClassName,
		TeacherName:  t.Name,
		Room:         t.Room,
		RequestedFor: r.RequestedTime,
		Link:         n.verifyLink("verify-request", token),
	}
	n.send(ctx, mail.TemplateRequestVerification, r.Email, d, zap.Int64("request_id", r.ID))
}
