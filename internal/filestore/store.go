package filestore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/retry"
)

// Object is a stored file: URL is served to clients, Key is used for deletion.
type Object struct {
	URL string
	Key string
}

type Store interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

var ErrUnavailable = apperr.New(apperr.Storage, "file storage is unavailable, please try again")

var DefaultUploadPolicy = retry.Policy{
	Attempts: 3,
	Base:     200 * time.Millisecond,
	Cap:      2 * time.Second,
	Jitter:   100 * time.Millisecond,
}

// PutWithRetry uploads body, rewinding it before every attempt. Only storage errors are retried.
func PutWithRetry(ctx context.Context, s Store, policy retry.Policy, name, contentType string, body io.ReadSeeker) (Object, error) {
	var obj Object

	err := retry.Do(ctx, policy, isRetryable, func(int) error {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return apperr.Wrap(apperr.Internal, "could not read upload", err)
		}

		o, err := s.Put(ctx, name, contentType, body)
		if err != nil {
			return err
		}
		obj = o
		return nil
	})

	return obj, err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return apperr.Is(err, apperr.Storage)
}
