package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by maps. It serves unit tests and
// the zero-dependency dev backend. Documents are normalized through JSON so
// behavior matches the remote backends.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]map[string]interface{}
	order map[string][]string // insertion order per collection, for stable iteration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string]map[string]interface{}),
		order: make(map[string][]string),
	}
}

func (s *MemoryStore) Index(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]interface{})
	}
	if _, exists := s.docs[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.docs[collection][id] = m
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return json.Marshal(doc)
}

func (s *MemoryStore) Search(ctx context.Context, collection string, q Query, srt Sort, from, size int) ([]json.RawMessage, int, error) {
	type hit struct {
		raw json.RawMessage
		key interface{}
	}

	s.mu.RLock()
	matched := make([]hit, 0)
	for _, id := range s.order[collection] {
		doc, ok := s.docs[collection][id]
		if !ok || !matches(doc, q) {
			continue
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			s.mu.RUnlock()
			return nil, 0, err
		}
		matched = append(matched, hit{raw: raw, key: doc[srt.Field]})
	}
	s.mu.RUnlock()

	if srt.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := fieldLess(matched[i].key, matched[j].key)
			if srt.Desc {
				return !less && !fieldEqual(matched[i].key, matched[j].key)
			}
			return less
		})
	}

	total := len(matched)
	if from > total {
		from = total
	}
	end := total
	if size > 0 && from+size < end {
		end = from + size
	}

	out := make([]json.RawMessage, 0, end-from)
	for _, h := range matched[from:end] {
		out = append(out, h.raw)
	}
	return out, total, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal partial document: %w", err)
	}
	var norm map[string]interface{}
	if err := json.Unmarshal(raw, &norm); err != nil {
		return fmt.Errorf("normalize partial document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range norm {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.docs[collection], id)
	s.removeFromOrder(collection, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, q Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, doc := range s.docs[collection] {
		if matches(doc, q) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteByQuery(ctx context.Context, collection string, q Query) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, doc := range s.docs[collection] {
		if matches(doc, q) {
			delete(s.docs[collection], id)
			s.removeFromOrder(collection, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) removeFromOrder(collection, id string) {
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func matches(doc map[string]interface{}, q Query) bool {
	for field, want := range q.Terms {
		got, ok := doc[field].(string)
		if !ok || got != want {
			return false
		}
	}
	if q.Search != "" && !matchesSearch(doc, q.Search) {
		return false
	}
	return true
}

func matchesSearch(doc map[string]interface{}, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{"title", "description"} {
		if v, ok := doc[field].(string); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	if tags, ok := doc["tags"].([]interface{}); ok {
		for _, t := range tags {
			if tag, ok := t.(string); ok && tag == search {
				return true
			}
		}
	}
	return false
}

// fieldLess orders timestamps chronologically and everything else as strings.
func fieldLess(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return aok && !bok // missing fields sort last
	}
	at, aerr := time.Parse(time.RFC3339Nano, as)
	bt, berr := time.Parse(time.RFC3339Nano, bs)
	if aerr == nil && berr == nil {
		return at.Before(bt)
	}
	return as < bs
}

func fieldEqual(a, b interface{}) bool {
	return !fieldLess(a, b) && !fieldLess(b, a)
}
