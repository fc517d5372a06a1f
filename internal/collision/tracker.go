// Package collision tracks message-ID collisions across the schemas loaded
// into a Driver, the same way the teacher package tracks metric-hash
// collisions across the metrics written into a blob.
package collision

import (
	"github.com/dcclgo/dccl/errs"
)

// Tracker tracks the message IDs bound to loaded schemas and detects
// collisions: two different schemas registered under the same ID.
//
// It is not safe for concurrent use; callers serialize access the same way
// Driver serializes access to its other load-time state (spec §5).
type Tracker struct {
	idToName map[uint32]string // message ID -> full schema name
}

// NewTracker creates a new, empty ID tracker.
func NewTracker() *Tracker {
	return &Tracker{idToName: make(map[uint32]string)}
}

// Track records that id is now bound to name. Reloading the same schema
// under the same name and ID is a no-op. Binding a different name to an
// already-used ID returns errs.ErrHashCollision.
func (t *Tracker) Track(id uint32, name string) error {
	if existing, ok := t.idToName[id]; ok {
		if existing != name {
			return errs.ErrHashCollision
		}

		return nil
	}

	t.idToName[id] = name

	return nil
}

// Untrack removes the binding for id, if any.
func (t *Tracker) Untrack(id uint32) {
	delete(t.idToName, id)
}

// NameFor returns the schema name bound to id, if any.
func (t *Tracker) NameFor(id uint32) (string, bool) {
	name, ok := t.idToName[id]
	return name, ok
}

// Count returns the number of distinct IDs currently tracked.
func (t *Tracker) Count() int {
	return len(t.idToName)
}

// Reset clears all tracked bindings.
func (t *Tracker) Reset() {
	for k := range t.idToName {
		delete(t.idToName, k)
	}
}
