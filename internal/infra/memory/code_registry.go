package memory

import (
	"context"
	"sync"
)

// CodeRegistry is the in-memory implementation of app.CodeRegistry for
// single-instance deployments.
type CodeRegistry struct {
	mu    sync.Mutex
	codes map[int]struct{}
}

func NewCodeRegistry() *CodeRegistry {
	return &CodeRegistry{codes: make(map[int]struct{})}
}

func (r *CodeRegistry) Reserve(_ context.Context, code int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.codes[code]; taken {
		return false
	}
	r.codes[code] = struct{}{}
	return true
}

func (r *CodeRegistry) Release(_ context.Context, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, code)
}
