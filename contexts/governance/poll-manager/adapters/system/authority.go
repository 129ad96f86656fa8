package system

import (
	"context"
	"strings"
	"sync"
)

// StaticAuthorityRegistry verifies principals against a fixed set that can
// be extended at runtime.
type StaticAuthorityRegistry struct {
	mu          sync.RWMutex
	authorities map[string]struct{}
}

func NewStaticAuthorityRegistry(principals ...string) *StaticAuthorityRegistry {
	r := &StaticAuthorityRegistry{authorities: make(map[string]struct{}, len(principals))}
	for _, principal := range principals {
		r.Add(principal)
	}
	return r
}

func (r *StaticAuthorityRegistry) Add(principal string) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorities[principal] = struct{}{}
}

func (r *StaticAuthorityRegistry) Remove(principal string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.authorities, strings.TrimSpace(principal))
}

func (r *StaticAuthorityRegistry) IsVerifiedAuthority(_ context.Context, principal string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.authorities[strings.TrimSpace(principal)]
	return ok, nil
}
