package model

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Protocol builds the provider request for one call and reads the answer
// out of a successful response body.
type Protocol interface {
	Name() string
	BuildRequest(ctx context.Context, credentials, modelID, prompt string) (*http.Request, error)
	ExtractAnswer(body []byte) (string, error)
}

type route struct {
	prefix   string
	protocol Protocol
}

// Registry maps model-id prefixes to protocols. Ids with no matching
// prefix go to the fallback protocol.
type Registry struct {
	mu       sync.RWMutex
	routes   []route
	fallback Protocol
}

// NewRegistry creates a registry that routes unmatched ids to fallback.
func NewRegistry(fallback Protocol) *Registry {
	return &Registry{fallback: fallback}
}

// Register routes model ids starting with prefix to p. Registering the
// same prefix again replaces the previous protocol.
func (r *Registry) Register(prefix string, p Protocol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.routes {
		if r.routes[i].prefix == prefix {
			r.routes[i].protocol = p
			return
		}
	}
	r.routes = append(r.routes, route{prefix: prefix, protocol: p})
	// longest prefix wins
	sort.SliceStable(r.routes, func(i, j int) bool {
		return len(r.routes[i].prefix) > len(r.routes[j].prefix)
	})
}

// Resolve returns the protocol for modelID.
func (r *Registry) Resolve(modelID string) Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if strings.HasPrefix(modelID, rt.prefix) {
			return rt.protocol
		}
	}
	return r.fallback
}

// Providers lists the registered protocol names, fallback last.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.routes)+1)
	for _, rt := range r.routes {
		names = append(names, rt.protocol.Name())
	}
	if r.fallback != nil {
		names = append(names, r.fallback.Name())
	}
	return names
}
