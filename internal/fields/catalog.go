package fields

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/pkg/logger"
)

var (
	ErrFieldNotFound = errors.New("field not found")
	ErrDefaultField  = errors.New("default fields cannot be modified")
)

// Persister stores the custom (non-default) portion of the catalog.
type Persister interface {
	LoadFields() ([]Descriptor, error)
	SaveFields([]Descriptor) error
}

// Catalog serves field descriptors to the import pipeline: the fixed default
// set plus any user-defined custom fields. Custom fields persist through the
// injected Persister; defaults are immutable.
type Catalog struct {
	mu      sync.RWMutex
	persist Persister
	custom  []Descriptor

	listenerMu sync.Mutex
	listeners  map[int]func([]Descriptor)
	nextToken  int
}

// NewCatalog creates a catalog backed by p. A nil Persister keeps custom
// fields in memory only.
func NewCatalog(p Persister) *Catalog {
	c := &Catalog{
		persist:   p,
		listeners: make(map[int]func([]Descriptor)),
	}
	if p != nil {
		custom, err := p.LoadFields()
		if err != nil {
			logger.Warn("could not load custom fields, starting with defaults only", "error", err)
		} else {
			c.custom = custom
		}
	}
	return c
}

// Fields returns the full catalog: defaults followed by custom fields.
func (c *Catalog) Fields() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(DefaultFields(), c.custom...)
}

// FieldsBySection returns the catalog entries for one section, in order.
func (c *Catalog) FieldsBySection(section Section) []Descriptor {
	var out []Descriptor
	for _, f := range c.Fields() {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// FieldByID looks up a descriptor by catalog id.
func (c *Catalog) FieldByID(id string) (Descriptor, error) {
	for _, f := range c.Fields() {
		if f.ID == id {
			return f, nil
		}
	}
	return Descriptor{}, ErrFieldNotFound
}

// AddField appends a custom field to its section. The id and order are
// assigned here; callers supply name, type, required flag and section.
func (c *Catalog) AddField(field Descriptor) (Descriptor, error) {
	c.mu.Lock()
	field.ID = domain.NewID()
	field.Order = len(c.sectionFieldsLocked(field.Section))
	c.custom = append(c.custom, field)
	err := c.saveLocked()
	c.mu.Unlock()
	if err != nil {
		return Descriptor{}, fmt.Errorf("saving custom fields: %w", err)
	}
	c.notifyListeners()
	return field, nil
}

// UpdateField replaces a custom field in place. Default fields are immutable.
func (c *Catalog) UpdateField(field Descriptor) error {
	if isDefaultField(field.ID) {
		return ErrDefaultField
	}
	c.mu.Lock()
	found := false
	for i, f := range c.custom {
		if f.ID == field.ID {
			c.custom[i] = field
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return ErrFieldNotFound
	}
	err := c.saveLocked()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving custom fields: %w", err)
	}
	c.notifyListeners()
	return nil
}

// DeleteField removes a custom field. Default fields are immutable.
func (c *Catalog) DeleteField(id string) error {
	if isDefaultField(id) {
		return ErrDefaultField
	}
	c.mu.Lock()
	found := false
	kept := c.custom[:0]
	for _, f := range c.custom {
		if f.ID == id {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	c.custom = kept
	if !found {
		c.mu.Unlock()
		return ErrFieldNotFound
	}
	err := c.saveLocked()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving custom fields: %w", err)
	}
	c.notifyListeners()
	return nil
}

// Subscribe registers a listener invoked synchronously after every catalog
// change. The returned function unsubscribes it.
func (c *Catalog) Subscribe(fn func([]Descriptor)) func() {
	c.listenerMu.Lock()
	token := c.nextToken
	c.nextToken++
	c.listeners[token] = fn
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, token)
		c.listenerMu.Unlock()
	}
}

func (c *Catalog) notifyListeners() {
	fields := c.Fields()
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	for _, fn := range c.listeners {
		fn(fields)
	}
}

func (c *Catalog) sectionFieldsLocked(section Section) []Descriptor {
	var out []Descriptor
	for _, f := range append(DefaultFields(), c.custom...) {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

func (c *Catalog) saveLocked() error {
	if c.persist == nil {
		return nil
	}
	return c.persist.SaveFields(c.custom)
}
