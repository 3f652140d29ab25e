package template

import (
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Entry registers a strategy constructor under a name.
type Entry struct {
	Name string
	Help string
	New  func() Strategy
}

// Registry maps template names to strategy constructors. It is fixed at
// construction and safe for concurrent use.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry builds a registry. Empty or duplicate names and nil
// constructors are reported as *shaper.ConfigurationError.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		if e.Name == "" {
			return nil, &sh.ConfigurationError{Key: fmt.Sprintf("entries[%d]", i), Reason: "template name must not be empty"}
		}
		if e.New == nil {
			return nil, &sh.ConfigurationError{Key: e.Name, Reason: "template has no constructor"}
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, &sh.ConfigurationError{Key: e.Name, Reason: "template registered twice"}
		}
		r.entries[e.Name] = e
	}
	return r, nil
}

// Default returns a registry over Builtins.
func Default() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.entries)
	slices.Sort(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Help returns the one-line description registered with name.
func (r *Registry) Help(name string) string { return r.entries[name].Help }

// Create binds the strategy registered under name to a copy of data and to
// settings. Nothing is run. An unknown name yields *shaper.UnknownTemplateError
// and a nil template.
func (r *Registry) Create(name string, data *sh.Frame, settings sh.Settings, opts ...Option) (*Template, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, &sh.UnknownTemplateError{Name: name, Known: r.Names()}
	}
	if data == nil {
		return nil, &sh.ConfigurationError{Key: "data", Reason: "template needs a dataset"}
	}
	t := &Template{
		name:     name,
		strategy: e.New(),
		data:     data.Clone(),
		settings: settings,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}
