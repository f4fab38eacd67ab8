package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/geocoder89/clubhub/internal/apperr"
)

// Memory keeps files in process. Used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	files   map[string]memFile

	// failure injection for tests
	FailPuts    int
	FailDeletes bool
	puts        int
}

type memFile struct {
	data        []byte
	contentType string
}

// NewMemory serves URLs as baseURL + "/files/" + key; the API mounts that route in memory mode.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, files: make(map[string]memFile)}
}

func (m *Memory) Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return Object{}, apperr.Wrap(apperr.Internal, "could not read upload", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.FailPuts > 0 {
		m.FailPuts--
		return Object{}, apperr.Wrap(apperr.Storage, ErrUnavailable.Message, errors.New("injected put failure"))
	}

	m.files[name] = memFile{data: data, contentType: contentType}
	return Object{URL: m.baseURL + "/files/" + name, Key: name}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeletes {
		return apperr.Wrap(apperr.Storage, "could not delete stored file", errors.New("injected delete failure"))
	}

	delete(m.files, key)
	return nil
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[key]
	return bytes.Clone(f.data), ok
}

// Open returns a stored file with the content type it was uploaded with.
func (m *Memory) Open(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(f.data), f.contentType, true
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Puts counts upload attempts, failed ones included.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
