package metrics

import (
	"context"
	"io"
	"time"

	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.BlobStore = (*InstrumentedBlobStore)(nil)

// InstrumentedBlobStore counts and times the calls of the wrapped store.
type InstrumentedBlobStore struct {
	next    port.BlobStore
	metrics *Metrics
}

func (m *Metrics) InstrumentBlobStore(next port.BlobStore) *InstrumentedBlobStore {
	return &InstrumentedBlobStore{next: next, metrics: m}
}

func (s *InstrumentedBlobStore) Store(
	ctx context.Context, content io.Reader, extHint string,
) (string, error) {
	start := time.Now()
	name, err := s.next.Store(ctx, content, extHint)
	s.metrics.observeBlob("store", start, err)
	return name, err
}

func (s *InstrumentedBlobStore) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.next.Delete(ctx, name)
	s.metrics.observeBlob("delete", start, err)
	return err
}

func (s *InstrumentedBlobStore) Exists(
	ctx context.Context, name string,
) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, name)
	s.metrics.observeBlob("exists", start, err)
	return ok, err
}

func (s *InstrumentedBlobStore) Open(
	ctx context.Context, name string,
) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.next.Open(ctx, name)
	s.metrics.observeBlob("open", start, err)
	return rc, err
}
