package delivery

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory behind a mutex.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]map[string]*memEntry
}

type memEntry struct {
	Entry
	consumed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: map[string]map[string]*memEntry{}}
}

func (s *MemoryStore) Put(ctx context.Context, token string, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; ok {
		return ErrDuplicate
	}
	byFormat := make(map[string]*memEntry, len(entries))
	for _, e := range entries {
		e.Data = append([]byte(nil), e.Data...)
		byFormat[e.Format] = &memEntry{Entry: e}
	}
	s.tokens[token] = byFormat
	return nil
}

func (s *MemoryStore) Redeem(ctx context.Context, token, format string, now time.Time) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[token][format]
	switch {
	case !ok:
		return Artifact{}, ErrNotFound
	case e.consumed:
		return Artifact{}, ErrConsumed
	case !now.Before(e.ExpiresAt):
		e.Data = nil
		return Artifact{}, ErrExpired
	}
	e.consumed = true
	art := e.Artifact
	e.Data = nil
	return art, nil
}

func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, byFormat := range s.tokens {
		for format, e := range byFormat {
			switch {
			case !now.Before(e.PurgeAt):
				delete(byFormat, format)
				n++
			case !now.Before(e.ExpiresAt) && e.Data != nil:
				e.Data = nil
				n++
			}
		}
		if len(byFormat) == 0 {
			delete(s.tokens, token)
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of entries held, including tombstones.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, byFormat := range s.tokens {
		n += len(byFormat)
	}
	return n
}
