package flagstore

import (
	"context"
	"sync"
)

type MemFlagStore struct {
	mu   sync.Mutex
	data map[string][]string
}

var _ FlagStore = (*MemFlagStore)(nil)

func NewMemFlagStore() *MemFlagStore {
	return &MemFlagStore{
		data: make(map[string][]string),
	}
}

func (s *MemFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemFlagStore) Add(ctx context.Context, key string, flags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var merged []string
	for _, f := range append(s.data[key], flags...) {
		if !seen[f] {
			merged = append(merged, f)
			seen[f] = true
		}
	}
	s.data[key] = merged
	return nil
}

// does not error if flags not in set
func (s *MemFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(flags))
	for _, f := range flags {
		drop[f] = true
	}
	out := []string{}
	for _, f := range s.data[key] {
		if !drop[f] {
			out = append(out, f)
		}
	}
	s.data[key] = out
	return nil
}
