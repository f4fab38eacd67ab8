package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geocoder89/clubhub/internal/domain/registration"
)

func newReg(id, user string, payment *registration.PaymentReceipt) registration.Registration {
	return registration.Registration{ID: id, UserID: user, RegisteredAt: time.Now(), Payment: payment}
}

func TestPaymentRequired(t *testing.T) {
	e := Event{RequiresPayment: true, PaymentAmount: 0}
	require.False(t, e.PaymentRequired())

	e.PaymentAmount = 2500
	require.True(t, e.PaymentRequired())

	e.RequiresPayment = false
	require.False(t, e.PaymentRequired())
}

func TestAddRegistrationRejectsDuplicateAndClosed(t *testing.T) {
	e := Event{ID: "evt-1"}

	require.NoError(t, e.AddRegistration(newReg("r1", "u1", nil)))
	require.ErrorIs(t, e.AddRegistration(newReg("r2", "u1", nil)), registration.ErrAlreadyRegistered)

	e.Cancelled = true
	require.ErrorIs(t, e.AddRegistration(newReg("r3", "u2", nil)), ErrClosed)

	require.Equal(t, []string{"u1"}, e.RegisteredUserIDs())
	require.Len(t, e.Changes(), 1)
}

func TestCancelledWinsOverDuplicate(t *testing.T) {
	e := Event{Cancelled: true, Registrations: []registration.Registration{newReg("r1", "u1", nil)}}
	require.ErrorIs(t, e.CanRegister("u1"), ErrClosed)
}

func TestRemoveThenRegisterAgain(t *testing.T) {
	e := Event{}
	require.NoError(t, e.AddRegistration(newReg("r1", "u1", nil)))

	removed, err := e.RemoveRegistrationForUser("u1")
	require.NoError(t, err)
	require.Equal(t, "r1", removed.ID)
	require.Empty(t, e.RegisteredUserIDs())

	_, err = e.RemoveRegistrationForUser("u1")
	require.ErrorIs(t, err, registration.ErrNotFound)

	require.NoError(t, e.AddRegistration(newReg("r2", "u1", nil)))
	require.Len(t, e.Changes(), 3)
}

func TestApproveAndRejectAddressByID(t *testing.T) {
	e := Event{Registrations: []registration.Registration{
		newReg("r1", "u1", &registration.PaymentReceipt{Status: registration.StatusPending}),
		newReg("r2", "u2", &registration.PaymentReceipt{Status: registration.StatusPending}),
		newReg("r3", "u3", nil),
	}}
	now := time.Now()

	p, err := e.ApprovePayment("r2", "admin", now)
	require.NoError(t, err)
	require.Equal(t, registration.StatusVerified, p.Status)
	require.Equal(t, registration.StatusPending, e.Registrations[0].Payment.Status)

	_, err = e.RejectPayment("r2", "too late", "admin", now)
	require.ErrorIs(t, err, registration.ErrInvalidPaymentState)

	_, err = e.ApprovePayment("r3", "admin", now)
	require.ErrorIs(t, err, registration.ErrNoReceipt)

	_, err = e.ApprovePayment("missing", "admin", now)
	require.ErrorIs(t, err, registration.ErrNotFound)

	require.Len(t, e.Changes(), 1)
	require.Equal(t, PaymentUpdated, e.Changes()[0].Kind)
}

func TestFailedTransitionLeavesReceiptUntouched(t *testing.T) {
	e := Event{Registrations: []registration.Registration{
		newReg("r1", "u1", &registration.PaymentReceipt{Status: registration.StatusRejected, RejectionReason: "blurry"}),
	}}

	_, err := e.ApprovePayment("r1", "admin", time.Now())
	require.ErrorIs(t, err, registration.ErrInvalidPaymentState)
	require.Equal(t, registration.StatusRejected, e.Registrations[0].Payment.Status)
	require.Nil(t, e.Registrations[0].Payment.VerifiedAt)
}

func TestCloneIsDeep(t *testing.T) {
	e := Event{Registrations: []registration.Registration{
		newReg("r1", "u1", &registration.PaymentReceipt{Status: registration.StatusPending}),
	}}
	require.NoError(t, e.AddRegistration(newReg("r2", "u2", nil)))

	cp := e.Clone()
	cp.Registrations[0].Payment.Status = registration.StatusVerified

	require.Equal(t, registration.StatusPending, e.Registrations[0].Payment.Status)
	require.Empty(t, cp.Changes())
}

func TestReviewRowsSkipFreeRegistrations(t *testing.T) {
	e := Event{ID: "evt", Title: "Hackathon", Registrations: []registration.Registration{
		newReg("r1", "u1", &registration.PaymentReceipt{ReceiptNumber: "RCP-1", Status: registration.StatusPending}),
		newReg("r2", "u2", nil),
	}}

	rows := e.ReviewRows()
	require.Len(t, rows, 1)
	require.Equal(t, "RCP-1", rows[0].ReceiptNumber)
	require.Equal(t, "Hackathon", rows[0].EventTitle)
}

func TestNewFromCreateRequestTrims(t *testing.T) {
	e := NewFromCreateRequest(CreateEventRequest{Title: "  Tech Talk ", StartAt: time.Now(), RequiresPayment: true, PaymentAmount: 1000})
	require.Equal(t, "Tech Talk", e.Title)
	require.NotEmpty(t, e.ID)
	require.True(t, e.PaymentRequired())

	v := e.View()
	require.Equal(t, 0, v.RegistrationCount)
	require.NotNil(t, v.RegisteredUsers)
}

func TestCancelKeepsRegistrations(t *testing.T) {
	e := Event{}
	require.NoError(t, e.AddRegistration(newReg("r1", "u1", nil)))

	e.Cancel()

	require.ErrorIs(t, e.AddRegistration(newReg("r2", "u2", nil)), ErrClosed)
	require.Equal(t, []string{"u1"}, e.RegisteredUserIDs())
}
