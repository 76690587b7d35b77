package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Directory is a PersonDirectory held in memory, filled from configuration
// or by the application as persons become known.
type Directory struct {
	mu      sync.RWMutex
	persons map[string]ports.Person
}

// NewDirectory creates a directory holding persons.
func NewDirectory(persons ...ports.Person) *Directory {
	d := &Directory{persons: make(map[string]ports.Person, len(persons))}
	for _, p := range persons {
		d.persons[p.ID] = p
	}
	return d
}

// Add registers or replaces a person.
func (d *Directory) Add(p ports.Person) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persons[p.ID] = p
}

// Lookup implements ports.PersonDirectory.
func (d *Directory) Lookup(ctx context.Context, personID string) (ports.Person, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.persons[personID]
	if !ok {
		return ports.Person{}, dterrors.NotFound("notification.Lookup", fmt.Sprintf("person not found: %s", personID))
	}
	return p, nil
}

var _ ports.PersonDirectory = (*Directory)(nil)
