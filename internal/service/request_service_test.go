package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

const subjRequest = "Bitte bestätigen Sie Ihre Terminanfrage"

func newRequestFixture(t *testing.T, slots ...model.Slot) (*RequestService, *memRequestStore, *bookingFixture) {
	t.Helper()
	f := newBookingFixture(t, nil, slots...)
	store := newMemRequestStore()
	svc := NewRequestService(store, memTeachers{
		1: {ID: 1, Name: "Frau Müller", Room: "B204", System: model.SystemVollzeit},
	}, f.svc)
	return svc, store, f
}

func requestInput() RequestInput {
	in := parentInput(0)
	return RequestInput{TeacherID: 1, RequestedTime: " ab 17 Uhr ", VisitorInput: in.VisitorInput}
}

func createVerifiedRequest(t *testing.T, svc *RequestService, store *memRequestStore, mailer *recordingSender) *model.BookingRequest {
	t.Helper()
	ctx := context.Background()
	req, err := svc.Create(ctx, requestInput())
	require.NoError(t, err)

	msgs := mailer.bySubject(subjRequest)
	require.NotEmpty(t, msgs)
	text := msgs[len(msgs)-1].Text
	i := strings.Index(text, "/verify-request/")
	require.GreaterOrEqual(t, i, 0)
	token := text[i+len("/verify-request/") : i+len("/verify-request/")+64]

	verified, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, verified.VerifiedAt)
	return req
}

func TestRequestCreate(t *testing.T) {
	svc, _, f := newRequestFixture(t)

	req, err := svc.Create(context.Background(), requestInput())
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, "ab 17 Uhr", req.RequestedTime)
	assert.Equal(t, "anna@example.de", req.Email)
	assert.Nil(t, req.VerifiedAt)
	assert.Len(t, f.mailer.bySubject(subjRequest), 1)
	assert.Equal(t, []string{"request.created"}, f.events.types())
}

func TestRequestCreate_UnknownTeacher(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	in := requestInput()
	in.TeacherID = 42

	_, err := svc.Create(context.Background(), in)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, MsgTeacherNotFound, nf.Message)
}

func TestRequestCreate_Invalid(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	in := requestInput()
	in.RequestedTime = "   "

	_, err := svc.Create(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "requestedTime")
}

func TestRequestVerify_UnknownToken(t *testing.T) {
	svc, _, _ := newRequestFixture(t)

	_, err := svc.Verify(context.Background(), strings.Repeat("0", 64))
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, MsgInvalidLink, nf.Message)
}

func TestRequestAssign(t *testing.T) {
	svc, store, f := newRequestFixture(t, freeSlot(5, 1))
	req := createVerifiedRequest(t, svc, store, f.mailer)

	slot, err := svc.Assign(context.Background(), req.ID, 1, 5)
	require.NoError(t, err)
	assert.True(t, slot.IsConfirmed())
	assert.Equal(t, "Anna Schulz", *slot.ParentName)
	assert.NotNil(t, slot.VerifiedAt)

	stored, err := store.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, stored.Status)
	require.NotNil(t, stored.AssignedSlotID)
	assert.Equal(t, int64(5), *stored.AssignedSlotID)

	assert.Len(t, f.mailer.bySubject(subjConfirmation), 1)

	_, err = svc.Assign(context.Background(), req.ID, 1, 5)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, MsgRequestResolved, conflict.Message)
}

func TestRequestAssign_Unverified(t *testing.T) {
	svc, _, _ := newRequestFixture(t, freeSlot(5, 1))
	req, err := svc.Create(context.Background(), requestInput())
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), req.ID, 1, 5)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, MsgNotVerified, conflict.Message)
}

func TestRequestAssign_BookedSlot(t *testing.T) {
	svc, store, f := newRequestFixture(t, freeSlot(5, 1))
	req := createVerifiedRequest(t, svc, store, f.mailer)
	_, err := f.svc.Reserve(context.Background(), companyInput(5))
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), req.ID, 1, 5)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, MsgSlotUnavailable, conflict.Message)

	stored, err := store.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, stored.Status)
}

func TestRequestAssign_ForeignTeacher(t *testing.T) {
	svc, store, f := newRequestFixture(t, freeSlot(5, 1))
	req := createVerifiedRequest(t, svc, store, f.mailer)

	_, err := svc.Assign(context.Background(), req.ID, 2, 5)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.False(t, f.slots.get(5).Booked)
}

func TestRequestDecline(t *testing.T) {
	svc, _, f := newRequestFixture(t)
	req, err := svc.Create(context.Background(), requestInput())
	require.NoError(t, err)

	declined, err := svc.Decline(context.Background(), req.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RequestDeclined, declined.Status)

	_, err = svc.Decline(context.Background(), req.ID, 1)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, f.events.types(), "request.declined")
}
