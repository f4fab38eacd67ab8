package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/filestore"
	"github.com/geocoder89/clubhub/internal/notifications"
	"github.com/geocoder89/clubhub/internal/receipt"
	"github.com/geocoder89/clubhub/internal/render"
	"github.com/geocoder89/clubhub/internal/repo/memory"
	"github.com/geocoder89/clubhub/internal/retry"
	"github.com/geocoder89/clubhub/internal/share"
)

var (
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	docxBytes = []byte("PK\x03\x04\x14\x00\x06\x00\x08\x00\x00\x00!\x00word/document.xml")

	admin = user.Actor{ID: "admin-1", Email: "exco@club.test", Name: "Exco", Role: user.RoleAdmin}
	alice = user.Actor{ID: "user-alice", Email: "alice@x.com", Name: "Alice Tan", Role: "user"}
	bob   = user.Actor{ID: "user-bob", Email: "bob@x.com", Name: "Bob Lee", Role: "user"}
)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []notifications.PaymentDecisionInput
	SendF func(ctx context.Context, in notifications.PaymentDecisionInput) error
}

func (f *fakeNotifier) SendPaymentDecision(ctx context.Context, in notifications.PaymentDecisionInput) error {
	f.mu.Lock()
	f.sent = append(f.sent, in)
	f.mu.Unlock()

	if f.SendF != nil {
		return f.SendF(ctx, in)
	}
	return nil
}

func (f *fakeNotifier) Sent() []notifications.PaymentDecisionInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifications.PaymentDecisionInput(nil), f.sent...)
}

type fakePrinter struct {
	calls int
}

func (p *fakePrinter) PrintPDF(_ context.Context, html []byte) ([]byte, error) {
	p.calls++
	return append([]byte("%PDF-1.4 "), html[:16]...), nil
}

type fixture struct {
	repo     *memory.EventsRepo
	files    *filestore.Memory
	notifier *fakeNotifier
	printer  *fakePrinter
	shares   *share.MemoryStore

	events   *EventService
	regs     *RegistrationService
	verify   *VerificationService
	receipts *ReceiptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     memory.NewEventsRepo(),
		files:    filestore.NewMemory("https://files.test"),
		notifier: &fakeNotifier{},
		printer:  &fakePrinter{},
		shares:   share.NewMemoryStore(),
	}

	issuer, err := receipt.NewIssuer(1)
	require.NoError(t, err)

	renderer, err := render.New(f.printer)
	require.NoError(t, err)

	f.events = NewEventService(f.repo, nil)
	f.regs = NewRegistrationService(f.repo, f.files, issuer, nil)
	f.regs.uploadPolicy = retry.Policy{Attempts: 3, Base: time.Millisecond, Cap: 2 * time.Millisecond}
	f.verify = NewVerificationService(f.repo, f.notifier, nil)
	f.receipts = NewReceiptService(f.repo, renderer, f.shares, ReceiptConfig{
		Issuer:        "Computing Society",
		ShareTTL:      time.Hour,
		PublicBaseURL: "https://clubhub.test",
		CacheTTL:      time.Minute,
	})
	return f
}

func (f *fixture) createEvent(t *testing.T, amount float64) event.Event {
	t.Helper()

	e, err := f.events.Create(context.Background(), admin, event.CreateEventRequest{
		Title:           "Hackathon Night",
		Location:        "Main Hall",
		StartAt:         time.Now().Add(48 * time.Hour),
		RequiresPayment: amount > 0,
		PaymentAmount:   amount,
	})
	require.NoError(t, err)
	return e
}

func form(actor user.Actor, method string) registration.Form {
	return registration.Form{
		Name:          actor.Name,
		Email:         actor.Email,
		MatricNumber:  "A123",
		Phone:         "0123456789",
		PaymentMethod: method,
	}
}

func pdfProof(size int64) *registration.ProofFile {
	return &registration.ProofFile{
		Filename:    "transfer.pdf",
		ContentType: "application/pdf",
		Size:        size,
		Body:        bytes.NewReader(pdfBytes),
	}
}

func (f *fixture) registerPaid(t *testing.T, eventID string, actor user.Actor) registration.Registration {
	t.Helper()

	reg, err := f.regs.Register(context.Background(), eventID, actor, form(actor, "bank transfer"), pdfProof(2<<20))
	require.NoError(t, err)
	require.NotNil(t, reg.Payment)
	return reg
}

func TestRegisterFreeEvent(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 0)

	reg, err := f.regs.Register(context.Background(), e.ID, alice, form(alice, ""), nil)
	require.NoError(t, err)
	require.Nil(t, reg.Payment)
	require.Equal(t, "Alice Tan", reg.Name)

	v, err := f.events.Get(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, 1, v.RegistrationCount)
	require.Equal(t, []string{alice.ID}, v.RegisteredUsers)
	require.Zero(t, f.files.Puts())
}

func TestRegisterPaidEventWithoutProof(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	_, err := f.regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), nil)
	require.True(t, apperr.Is(err, apperr.Validation))
	require.ErrorIs(t, err, registration.ErrProofRequired)

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Registrations)
	require.Zero(t, f.files.Puts())
}

func TestRegisterPaidEventCreatesPendingReceipt(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	reg := f.registerPaid(t, e.ID, alice)

	p := reg.Payment
	require.Equal(t, 20.0, p.Amount)
	require.Equal(t, registration.StatusPending, p.Status)
	require.Regexp(t, `^RCP-[0-9A-Z]+$`, p.ReceiptNumber)
	require.Nil(t, p.VerifiedAt)

	body, ok := f.files.Get(p.ReceiptKey)
	require.True(t, ok)
	require.Equal(t, pdfBytes, body)
}

func TestRegisterRejectsBadProofs(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	_, err := f.regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), pdfProof(8<<20))
	require.True(t, apperr.Is(err, apperr.PayloadTooLarge))

	docx := &registration.ProofFile{
		Filename:    "receipt.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Size:        int64(len(docxBytes)),
		Body:        bytes.NewReader(docxBytes),
	}
	_, err = f.regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), docx)
	require.True(t, apperr.Is(err, apperr.UnsupportedMedia))

	// declared as pdf, but the bytes are not
	disguised := &registration.ProofFile{
		Filename:    "receipt.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(docxBytes)),
		Body:        bytes.NewReader(docxBytes),
	}
	_, err = f.regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), disguised)
	require.True(t, apperr.Is(err, apperr.UnsupportedMedia))

	_, err = f.regs.Register(context.Background(), e.ID, alice, form(alice, " "), pdfProof(1024))
	require.ErrorIs(t, err, registration.ErrPaymentMethodRequired)

	require.Zero(t, f.files.Puts())
}

func TestRegisterValidationDetails(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 0)

	bad := form(alice, "")
	bad.Email = "nope"
	bad.Phone = ""

	_, err := f.regs.Register(context.Background(), e.ID, alice, bad, nil)
	require.True(t, apperr.Is(err, apperr.Validation))

	details := apperr.DetailsOf(err).(map[string]string)
	require.Contains(t, details, "email")
	require.Contains(t, details, "phone")
}

func TestRegisterUnknownAndCancelledEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.regs.Register(context.Background(), "missing", alice, form(alice, ""), nil)
	require.ErrorIs(t, err, event.ErrNotFound)

	e := f.createEvent(t, 0)
	_, err = f.events.Cancel(context.Background(), admin, e.ID)
	require.NoError(t, err)

	_, err = f.regs.Register(context.Background(), e.ID, alice, form(alice, ""), nil)
	require.True(t, apperr.Is(err, apperr.Closed))
}

func TestDoubleRegisterThenReRegister(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()

	first := f.registerPaid(t, e.ID, alice)

	_, err := f.regs.Register(ctx, e.ID, alice, form(alice, "bank transfer"), pdfProof(1024))
	require.ErrorIs(t, err, registration.ErrAlreadyRegistered)
	require.Equal(t, 1, f.files.Len())

	require.NoError(t, f.regs.Unregister(ctx, e.ID, alice))
	_, ok := f.files.Get(first.Payment.ReceiptKey)
	require.False(t, ok, "proof is deleted with the registration")

	again := f.registerPaid(t, e.ID, alice)
	require.NotEqual(t, first.Payment.ReceiptNumber, again.Payment.ReceiptNumber)

	err = f.regs.Unregister(ctx, e.ID, bob)
	require.ErrorIs(t, err, registration.ErrNotFound)
}

func TestConcurrentRegistrationsOfDifferentUsers(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []user.Actor{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.regs.Register(context.Background(), e.ID, actor, form(actor, "cash"), pdfProof(1024))
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Registrations, 2)
	require.NotEqual(t, loaded.Registrations[0].Payment.ReceiptNumber, loaded.Registrations[1].Payment.ReceiptNumber)
}

func TestConcurrentRegistrationsOfSameUser(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.regs.Register(context.Background(), e.ID, alice, form(alice, "cash"), pdfProof(1024))
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, registration.ErrAlreadyRegistered)
			failed++
		}
	}
	require.Equal(t, 1, failed)

	// the loser's upload, if it got that far, was cleaned up
	require.Equal(t, 1, f.files.Len())
}

func TestUploadRetriesThenGivesUp(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	f.files.FailPuts = 2
	f.registerPaid(t, e.ID, alice)
	require.Equal(t, 3, f.files.Puts())

	f.files.FailPuts = 3
	_, err := f.regs.Register(context.Background(), e.ID, bob, form(bob, "cash"), pdfProof(1024))
	require.True(t, apperr.Is(err, apperr.Storage))

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Registrations, 1)
}

func TestOrphanCleanupFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	f.registerPaid(t, e.ID, alice)

	f.files.FailDeletes = true
	require.NoError(t, f.regs.Unregister(context.Background(), e.ID, alice))

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Registrations)
}

// hookedStore lets a test run code between a mutation's Load and its Save, or fail the Save.
type hookedStore struct {
	*memory.EventsRepo

	beforeSave func()
	saveErr    error
}

func (s *hookedStore) Save(ctx context.Context, e *event.Event) error {
	if hook := s.beforeSave; hook != nil {
		s.beforeSave = nil
		hook()
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.EventsRepo.Save(ctx, e)
}

func TestSaveFailureDeletesUploadedProof(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	issuer, err := receipt.NewIssuer(2)
	require.NoError(t, err)

	dbDown := errors.New("connection reset by peer")
	regs := NewRegistrationService(&hookedStore{EventsRepo: f.repo, saveErr: dbDown}, f.files, issuer, nil)
	regs.uploadPolicy = f.regs.uploadPolicy

	_, err = regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), pdfProof(1024))
	require.ErrorIs(t, err, dbDown)
	require.True(t, apperr.Is(err, apperr.Internal))

	require.Equal(t, 1, f.files.Puts())
	require.Zero(t, f.files.Len())

	// a failing cleanup leaves the blob behind but still reports the save error
	f.files.FailDeletes = true
	_, err = regs.Register(context.Background(), e.ID, alice, form(alice, "bank transfer"), pdfProof(1024))
	require.ErrorIs(t, err, dbDown)
	require.Equal(t, 1, f.files.Len())

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Registrations)
}

func TestApproveRacingUnregisterIsNotFound(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()
	reg := f.registerPaid(t, e.ID, alice)

	store := &hookedStore{EventsRepo: f.repo}
	store.beforeSave = func() {
		require.NoError(t, f.regs.Unregister(ctx, e.ID, alice))
	}
	verify := NewVerificationService(store, f.notifier, nil)

	_, err := verify.Approve(ctx, e.ID, reg.ID, admin)
	require.True(t, apperr.Is(err, apperr.NotFound))
	require.ErrorIs(t, err, registration.ErrNotFound)

	loaded, err := f.repo.Load(ctx, e.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Registrations)
	require.Empty(t, f.notifier.Sent())
}

func TestApproveAndRejectFlow(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()

	a := f.registerPaid(t, e.ID, alice)
	b := f.registerPaid(t, e.ID, bob)

	approved, err := f.verify.Approve(ctx, e.ID, a.ID, admin)
	require.NoError(t, err)
	require.Equal(t, registration.StatusVerified, approved.Status)
	require.NotNil(t, approved.VerifiedAt)
	require.Equal(t, admin.ID, approved.ReviewedBy)

	rejected, err := f.verify.Reject(ctx, e.ID, b.ID, "  Blurry receipt ", admin)
	require.NoError(t, err)
	require.Equal(t, registration.StatusRejected, rejected.Status)
	require.Equal(t, "Blurry receipt", rejected.RejectionReason)
	require.Nil(t, rejected.VerifiedAt)

	_, err = f.verify.Approve(ctx, e.ID, a.ID, admin)
	require.True(t, apperr.Is(err, apperr.InvalidState))

	_, err = f.verify.Approve(ctx, e.ID, b.ID, admin)
	require.True(t, apperr.Is(err, apperr.InvalidState))

	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "verified", sent[0].Status)
	require.Equal(t, "alice@x.com", sent[0].Email)
	require.Equal(t, "rejected", sent[1].Status)
	require.Equal(t, "Blurry receipt", sent[1].Reason)
}

func TestDecisionsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	reg := f.registerPaid(t, e.ID, alice)

	_, err := f.verify.Approve(context.Background(), e.ID, reg.ID, alice)
	require.ErrorIs(t, err, user.ErrForbidden)

	_, err = f.verify.ListForReview(context.Background(), alice, "")
	require.ErrorIs(t, err, user.ErrForbidden)

	_, err = f.events.Create(context.Background(), alice, event.CreateEventRequest{Title: "Nope", StartAt: time.Now()})
	require.ErrorIs(t, err, user.ErrForbidden)
}

func TestDecisionOnUnknownRegistration(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)

	_, err := f.verify.Approve(context.Background(), e.ID, "nope", admin)
	require.ErrorIs(t, err, registration.ErrNotFound)

	free := f.createEvent(t, 0)
	reg, err := f.regs.Register(context.Background(), free.ID, alice, form(alice, ""), nil)
	require.NoError(t, err)

	_, err = f.verify.Approve(context.Background(), free.ID, reg.ID, admin)
	require.ErrorIs(t, err, registration.ErrNoReceipt)
}

func TestNotifyFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	reg := f.registerPaid(t, e.ID, alice)

	f.notifier.SendF = func(context.Context, notifications.PaymentDecisionInput) error {
		return errors.New("smtp down")
	}

	p, err := f.verify.Approve(context.Background(), e.ID, reg.ID, admin)
	require.NoError(t, err)
	require.Equal(t, registration.StatusVerified, p.Status)

	loaded, err := f.repo.Load(context.Background(), e.ID)
	require.NoError(t, err)
	stored, ok := loaded.FindByID(reg.ID)
	require.True(t, ok)
	require.Equal(t, registration.StatusVerified, stored.Payment.Status)
}

func TestListForReviewOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.createEvent(t, 20)
	e2 := f.createEvent(t, 35)

	a := f.registerPaid(t, e1.ID, alice)
	time.Sleep(2 * time.Millisecond)
	f.registerPaid(t, e2.ID, alice)
	time.Sleep(2 * time.Millisecond)
	f.registerPaid(t, e1.ID, bob)

	_, err := f.verify.Approve(ctx, e1.ID, a.ID, admin)
	require.NoError(t, err)

	rows, err := f.verify.ListForReview(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// pending first, newest first within a status
	require.Equal(t, registration.StatusPending, rows[0].Status)
	require.Equal(t, bob.ID, rows[0].UserID)
	require.Equal(t, registration.StatusPending, rows[1].Status)
	require.Equal(t, e2.ID, rows[1].EventID)
	require.Equal(t, registration.StatusVerified, rows[2].Status)

	pending, err := f.verify.ListForReview(ctx, admin, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	_, err = f.verify.ListForReview(ctx, admin, "paid")
	require.True(t, apperr.Is(err, apperr.Validation))
}

func TestReceiptRenderAndShareNeedVerified(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()
	reg := f.registerPaid(t, e.ID, alice)

	proof, err := f.receipts.ViewProof(ctx, e.ID, alice)
	require.NoError(t, err)
	require.Equal(t, registration.StatusPending, proof.Status)
	require.Equal(t, reg.Payment.ReceiptURL, proof.ReceiptURL)

	_, err = f.receipts.RenderOfficial(ctx, e.ID, alice, "html")
	require.ErrorIs(t, err, registration.ErrNotVerified)

	_, err = f.receipts.Share(ctx, e.ID, alice)
	require.ErrorIs(t, err, registration.ErrNotVerified)

	_, err = f.verify.Approve(ctx, e.ID, reg.ID, admin)
	require.NoError(t, err)

	doc, err := f.receipts.RenderOfficial(ctx, e.ID, alice, "")
	require.NoError(t, err)
	require.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	require.Contains(t, string(doc.Body), reg.Payment.ReceiptNumber)

	txt, err := f.receipts.RenderOfficial(ctx, e.ID, alice, "txt")
	require.NoError(t, err)
	require.Contains(t, string(txt.Body), "Alice Tan")

	pdf, err := f.receipts.RenderOfficial(ctx, e.ID, alice, "pdf")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", pdf.ContentType)

	// second pdf comes from the cache
	_, err = f.receipts.RenderOfficial(ctx, e.ID, alice, "pdf")
	require.NoError(t, err)
	require.Equal(t, 1, f.printer.calls)

	_, err = f.receipts.RenderOfficial(ctx, e.ID, alice, "docx")
	require.True(t, apperr.Is(err, apperr.Validation))

	link, err := f.receipts.Share(ctx, e.ID, alice)
	require.NoError(t, err)
	require.Equal(t, "https://clubhub.test/receipts/shared/"+link.Token, link.URL)

	shared, err := f.receipts.ResolveShare(ctx, link.Token, "txt")
	require.NoError(t, err)
	require.Equal(t, txt.Body, shared.Body)

	_, err = f.receipts.ResolveShare(ctx, "unknown-token", "html")
	require.ErrorIs(t, err, ErrShareNotFound)

	// removing the registration invalidates cached renders and links
	require.NoError(t, f.regs.Unregister(ctx, e.ID, alice))
	_, err = f.receipts.ResolveShare(ctx, link.Token, "txt")
	require.ErrorIs(t, err, ErrShareNotFound)
}

func TestShareLinkDoesNotFollowReRegistration(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()

	first := f.registerPaid(t, e.ID, alice)
	_, err := f.verify.Approve(ctx, e.ID, first.ID, admin)
	require.NoError(t, err)

	link, err := f.receipts.Share(ctx, e.ID, alice)
	require.NoError(t, err)

	require.NoError(t, f.regs.Unregister(ctx, e.ID, alice))
	second := f.registerPaid(t, e.ID, alice)
	require.NotEqual(t, first.Payment.ReceiptNumber, second.Payment.ReceiptNumber)

	_, err = f.verify.Approve(ctx, e.ID, second.ID, admin)
	require.NoError(t, err)

	_, err = f.receipts.ResolveShare(ctx, link.Token, "txt")
	require.ErrorIs(t, err, ErrShareNotFound)

	fresh, err := f.receipts.Share(ctx, e.ID, alice)
	require.NoError(t, err)

	doc, err := f.receipts.ResolveShare(ctx, fresh.Token, "txt")
	require.NoError(t, err)
	require.Contains(t, string(doc.Body), second.Payment.ReceiptNumber)
}

func TestShareLinkExpires(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()
	reg := f.registerPaid(t, e.ID, alice)

	_, err := f.verify.Approve(ctx, e.ID, reg.ID, admin)
	require.NoError(t, err)

	link, err := f.receipts.Share(ctx, e.ID, alice)
	require.NoError(t, err)

	f.receipts.now = func() time.Time { return link.ExpiresAt.Add(time.Second) }

	_, err = f.receipts.ResolveShare(ctx, link.Token, "html")
	require.ErrorIs(t, err, ErrShareNotFound)
}

func TestReceiptMetadataAccess(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 20)
	ctx := context.Background()
	reg := f.registerPaid(t, e.ID, alice)

	md, err := f.receipts.Metadata(ctx, e.ID, alice, "")
	require.NoError(t, err)
	require.Equal(t, reg.Payment.ReceiptNumber, md.Receipt.ReceiptNumber)
	require.Equal(t, "Hackathon Night", md.EventTitle)

	_, err = f.receipts.Metadata(ctx, e.ID, bob, alice.ID)
	require.ErrorIs(t, err, user.ErrForbidden)

	md, err = f.receipts.Metadata(ctx, e.ID, admin, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, md.UserID)

	_, err = f.receipts.Metadata(ctx, e.ID, bob, "")
	require.ErrorIs(t, err, registration.ErrNotFound)

	free := f.createEvent(t, 0)
	_, err = f.regs.Register(ctx, free.ID, bob, form(bob, ""), nil)
	require.NoError(t, err)
	_, err = f.receipts.ViewProof(ctx, free.ID, bob)
	require.ErrorIs(t, err, registration.ErrNoReceipt)
}

func TestCancelKeepsRegistrations(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, 0)
	ctx := context.Background()

	_, err := f.regs.Register(ctx, e.ID, alice, form(alice, ""), nil)
	require.NoError(t, err)

	v, err := f.events.Cancel(ctx, admin, e.ID)
	require.NoError(t, err)
	require.True(t, v.Cancelled)
	require.Equal(t, 1, v.RegistrationCount)

	_, err = f.events.Cancel(ctx, alice, e.ID)
	require.ErrorIs(t, err, user.ErrForbidden)
}
