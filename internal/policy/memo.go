package policy

import (
	"context"
	"sync"
)

type memoKey struct{}

// memo caches assignment lookups for the lifetime of one request.
type memo struct {
	mu      sync.Mutex
	entries map[string][]string
}

// WithRequestMemo returns a context carrying a fresh per-request assignment memo.
// The memo dies with the request; assignment changes show up on the next one.
func WithRequestMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &memo{entries: make(map[string][]string)})
}

func memoFrom(ctx context.Context) *memo {
	m, _ := ctx.Value(memoKey{}).(*memo)
	return m
}

func (m *memo) load(key string, fetch func() ([]string, error)) ([]string, error) {
	if m == nil {
		return fetch()
	}
	m.mu.Lock()
	if ids, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return ids, nil
	}
	m.mu.Unlock()

	ids, err := fetch()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries[key] = ids
	m.mu.Unlock()
	return ids, nil
}
