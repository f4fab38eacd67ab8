package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/render"
	"github.com/geocoder89/clubhub/internal/services"
)

type fakeReceipts struct {
	metadataFn func(ctx context.Context, eventID string, actor user.Actor, userID string) (services.ReceiptMetadata, error)
	proofFn    func(ctx context.Context, eventID string, actor user.Actor) (services.ProofRef, error)
	renderFn   func(ctx context.Context, eventID string, actor user.Actor, format string) (render.Document, error)
	shareFn    func(ctx context.Context, eventID string, actor user.Actor) (services.ShareLink, error)
	resolveFn  func(ctx context.Context, token, format string) (render.Document, error)
}

func (f *fakeReceipts) Metadata(ctx context.Context, eventID string, actor user.Actor, userID string) (services.ReceiptMetadata, error) {
	if f.metadataFn != nil {
		return f.metadataFn(ctx, eventID, actor, userID)
	}
	return services.ReceiptMetadata{}, nil
}

func (f *fakeReceipts) ViewProof(ctx context.Context, eventID string, actor user.Actor) (services.ProofRef, error) {
	if f.proofFn != nil {
		return f.proofFn(ctx, eventID, actor)
	}
	return services.ProofRef{}, nil
}

func (f *fakeReceipts) RenderOfficial(ctx context.Context, eventID string, actor user.Actor, format string) (render.Document, error) {
	if f.renderFn != nil {
		return f.renderFn(ctx, eventID, actor, format)
	}
	return render.Document{}, nil
}

func (f *fakeReceipts) Share(ctx context.Context, eventID string, actor user.Actor) (services.ShareLink, error) {
	if f.shareFn != nil {
		return f.shareFn(ctx, eventID, actor)
	}
	return services.ShareLink{}, nil
}

func (f *fakeReceipts) ResolveShare(ctx context.Context, token, format string) (render.Document, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, token, format)
	}
	return render.Document{}, nil
}

func TestDownloadReceiptHandler(t *testing.T) {
	fake := &fakeReceipts{
		renderFn: func(ctx context.Context, eventID string, actor user.Actor, format string) (render.Document, error) {
			if format == "pdf" {
				return render.Document{}, registration.ErrNotVerified
			}
			return render.Document{ContentType: "text/plain; charset=utf-8", Filename: "receipt-RCP-1.txt", Body: []byte("RCP-1")}, nil
		},
	}

	h := handlers.NewReceiptsHandler(fake)
	r := setupRouter(http.MethodGet, "/receipts/event/:eventId/download", &testMember, h.Download)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1/download?format=txt", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename=receipt-RCP-1.txt` {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") || w.Body.String() != "RCP-1" {
		t.Fatalf("unexpected document: %q %q", w.Header().Get("Content-Type"), w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1/download?format=pdf", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before verification, got %d", w.Code)
	}
	if apiErr := decodeError(t, w); apiErr.Code != "invalid_state" || apiErr.Message != "receipt not yet verified" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestReceiptMetadataHandler(t *testing.T) {
	var gotUserID string

	fake := &fakeReceipts{
		metadataFn: func(ctx context.Context, eventID string, actor user.Actor, userID string) (services.ReceiptMetadata, error) {
			gotUserID = userID
			if userID != "" && !actor.IsAdmin() {
				return services.ReceiptMetadata{}, user.ErrForbidden
			}
			return services.ReceiptMetadata{EventID: eventID, Receipt: registration.PaymentReceipt{ReceiptNumber: "RCP-1"}}, nil
		},
	}

	h := handlers.NewReceiptsHandler(fake)
	r := setupRouter(http.MethodGet, "/receipts/event/:eventId", &testMember, h.Metadata)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1?userId=someone-else", nil))
	if w.Code != http.StatusForbidden || gotUserID != "someone-else" {
		t.Fatalf("expected 403, got %d (userId %q)", w.Code, gotUserID)
	}
}

func TestShareAndSharedHandlers(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC()

	fake := &fakeReceipts{
		shareFn: func(ctx context.Context, eventID string, actor user.Actor) (services.ShareLink, error) {
			return services.ShareLink{Token: "tok", URL: "https://clubhub.test/receipts/shared/tok", ExpiresAt: expires}, nil
		},
		resolveFn: func(ctx context.Context, token, format string) (render.Document, error) {
			if token != "tok" {
				return render.Document{}, services.ErrShareNotFound
			}
			return render.Document{ContentType: "text/html; charset=utf-8", Filename: "receipt-RCP-1.html", Body: []byte("<html></html>")}, nil
		},
	}

	h := handlers.NewReceiptsHandler(fake)

	r := setupRouter(http.MethodGet, "/receipts/event/:eventId/share", &testMember, h.Share)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1/share", nil))

	var link services.ShareLink
	if err := json.Unmarshal(w.Body.Bytes(), &link); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Code != http.StatusOK || link.Token != "tok" || !link.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected share response %d %s", w.Code, w.Body.String())
	}

	// public route: no actor
	r = setupRouter(http.MethodGet, "/receipts/shared/:token", nil, h.Shared)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/shared/tok", nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline") {
		t.Fatalf("expected inline document, got %d %q", w.Code, w.Header().Get("Content-Disposition"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/shared/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestProofHandlerRequiresIdentity(t *testing.T) {
	h := handlers.NewReceiptsHandler(&fakeReceipts{})
	r := setupRouter(http.MethodGet, "/receipts/event/:eventId/proof", nil, h.Proof)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/event/e1/proof", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
