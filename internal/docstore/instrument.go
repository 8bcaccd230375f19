package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opencase-io/opencase/internal/metrics"
)

// Instrument wraps a Store so every operation is timed and failed operations
// are counted. ErrNotFound is a normal outcome, not a store failure.
func Instrument(s Store) Store {
	return &instrumentedStore{next: s}
}

type instrumentedStore struct {
	next Store
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (s *instrumentedStore) Index(ctx context.Context, collection, id string, doc interface{}) error {
	start := time.Now()
	err := s.next.Index(ctx, collection, id, doc)
	s.observe("index", start, err)
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, collection, id)
	s.observe("get", start, err)
	return doc, err
}

func (s *instrumentedStore) Search(ctx context.Context, collection string, q Query, srt Sort, from, size int) ([]json.RawMessage, int, error) {
	start := time.Now()
	docs, total, err := s.next.Search(ctx, collection, q, srt, from, size)
	s.observe("search", start, err)
	return docs, total, err
}

func (s *instrumentedStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	start := time.Now()
	err := s.next.Update(ctx, collection, id, partial)
	s.observe("update", start, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, collection, id)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) Count(ctx context.Context, collection string, q Query) (int, error) {
	start := time.Now()
	n, err := s.next.Count(ctx, collection, q)
	s.observe("count", start, err)
	return n, err
}

func (s *instrumentedStore) DeleteByQuery(ctx context.Context, collection string, q Query) (int, error) {
	start := time.Now()
	n, err := s.next.DeleteByQuery(ctx, collection, q)
	s.observe("delete_by_query", start, err)
	return n, err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
