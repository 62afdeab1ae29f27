package embed

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"sync"
)

// Marker names.
const (
	MarkerReviewForm   = "review_form"
	MarkerReviewSlider = "review_slider"
)

// ErrUnknownMarker is returned by Render for an unregistered name.
var ErrUnknownMarker = errors.New("embed: unknown marker")

// Request is the host context a marker renders in.
type Request struct {
	// PageID identifies the host page; 0 when unknown.
	PageID int
	// Attrs are the marker attributes, e.g. count and excerpt_len.
	Attrs map[string]string
	// HTTP is the request being served.
	HTTP *http.Request
	// Writer lets a marker set cookies before the fragment is written.
	Writer http.ResponseWriter
}

// Marker renders one embeddable fragment.
type Marker func(ctx context.Context, req Request) (template.HTML, error)

// Registry maps marker names to renderers. It is filled once at startup and
// read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	markers map[string]Marker
}

func NewRegistry() *Registry {
	return &Registry{markers: make(map[string]Marker)}
}

// Register adds a marker. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(name string, m Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.markers[name]; dup {
		panic(fmt.Sprintf("embed: marker %q registered twice", name))
	}
	r.markers[name] = m
}

// Lookup returns the marker registered under name.
func (r *Registry) Lookup(name string) (Marker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markers[name]
	return m, ok
}

// Render runs the marker registered under name.
func (r *Registry) Render(ctx context.Context, name string, req Request) (template.HTML, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMarker, name)
	}
	return m(ctx, req)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.markers))
	for name := range r.markers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
