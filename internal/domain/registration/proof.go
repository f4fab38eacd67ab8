package registration

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/geocoder89/clubhub/internal/apperr"
)

const MaxProofBytes int64 = 5 << 20

// ProofFile is an uploaded payment proof. Body must be readable from the start.
type ProofFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

var (
	ErrProofRequired         = apperr.New(apperr.Validation, "payment receipt file is required for this event")
	ErrPaymentMethodRequired = apperr.New(apperr.Validation, "payment method is required for this event")
	ErrUnsupportedProofType  = apperr.New(apperr.UnsupportedMedia, "receipt must be a PDF or image (pdf, jpg, jpeg, png, gif, webp)")
	ErrProofTooLarge         = apperr.New(apperr.PayloadTooLarge, "receipt file must be 5MB or smaller")
)

var allowedExt = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var allowedMIME = []string{"application/pdf", "image/jpeg", "image/png", "image/gif", "image/webp"}

// DeclaredType resolves the media type the client claims, falling back to the
// file extension when the header is missing or generic.
func (f ProofFile) DeclaredType() string {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			ct = mt
		}
	}

	if ct != "" && ct != "application/octet-stream" {
		for _, m := range allowedMIME {
			if ct == m {
				return m
			}
		}
		if ct == "image/jpg" {
			return "image/jpeg"
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
	return allowedExt[ext]
}

// ValidateProof runs the payment checks in order: presence, payment method,
// declared type, size, then sniffed content.
func ValidateProof(proof *ProofFile, paymentMethod string) error {
	if proof == nil || proof.Body == nil {
		return ErrProofRequired
	}

	if strings.TrimSpace(paymentMethod) == "" {
		return ErrPaymentMethodRequired
	}

	if proof.DeclaredType() == "" {
		return fmt.Errorf("declared %q: %w", proof.ContentType, ErrUnsupportedProofType)
	}

	if proof.Size > MaxProofBytes {
		return ErrProofTooLarge
	}

	sniffed, err := SniffProof(proof)
	if err != nil {
		return err
	}

	if sniffed == "" {
		return fmt.Errorf("content does not match an allowed type: %w", ErrUnsupportedProofType)
	}

	return nil
}

// SniffProof detects the real content type and rewinds the body.
// Returns "" when the content is not one of the allowed types.
func SniffProof(proof *ProofFile) (string, error) {
	m, err := mimetype.DetectReader(proof.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "could not read receipt file", err)
	}

	if _, err := proof.Body.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Wrap(apperr.Internal, "could not rewind receipt file", err)
	}

	for _, allowed := range allowedMIME {
		if m.Is(allowed) {
			return allowed, nil
		}
	}
	return "", nil
}
