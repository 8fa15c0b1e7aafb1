// Package resources maps resource names to their alignment rule and producer.
package resources

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-feed-cache/internal/freshness"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/producer"
)

// reserved names collide with fixed HTTP routes
var reserved = map[string]bool{
	"health":    true,
	"resources": true,
	"metrics":   true,
}

// Entry is a registered resource
type Entry struct {
	Name         string
	Rule         freshness.Rule
	Producer     interfaces.Producer
	WarmInterval time.Duration
}

// Registry is the table of known resources. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a resource. Names must be unique and must not contain the key
// separator, otherwise one resource's sweep could match another's keys.
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" {
		return errors.New("resource name cannot be empty")
	}
	if strings.ContainsAny(entry.Name, freshness.KeySeparator+"/") {
		return fmt.Errorf("resource name %q must not contain %q or '/'", entry.Name, freshness.KeySeparator)
	}
	if reserved[entry.Name] {
		return fmt.Errorf("resource name %q is reserved", entry.Name)
	}
	if entry.Producer == nil {
		return fmt.Errorf("resource %s has no producer", entry.Name)
	}
	entry.Rule = entry.Rule.WithDefaults()
	if err := entry.Rule.Validate(); err != nil {
		return fmt.Errorf("resource %s: %w", entry.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.Name]; exists {
		return fmt.Errorf("resource %s already registered", entry.Name)
	}
	r.entries[entry.Name] = entry
	return nil
}

// Lookup returns the entry registered under name
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns registered resource names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every registered entry, sorted by name
func (r *Registry) Entries() []Entry {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Build creates a registry from config, constructing each producer
func Build(config *Config, client *http.Client, logger *zap.Logger) (*Registry, error) {
	registry := NewRegistry()

	for _, def := range config.Resources {
		window, err := freshness.ParseWindow(def.Align)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", def.Name, err)
		}

		p, err := producer.New(def.Producer, client, logger.With(zap.String("resource", def.Name)))
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", def.Name, err)
		}

		entry := Entry{
			Name: def.Name,
			Rule: freshness.Rule{
				Window:      window,
				Offset:      def.Offset,
				KeyLayout:   def.KeyLayout,
				LabelLayout: def.LabelLayout,
			},
			Producer:     p,
			WarmInterval: def.WarmInterval,
		}
		if err := registry.Register(entry); err != nil {
			return nil, err
		}

		logger.Debug("Registered resource",
			zap.String("resource", def.Name),
			zap.Duration("window", window),
			zap.Duration("offset", def.Offset),
			zap.String("producer", def.Producer.Kind))
	}

	return registry, nil
}
