package pipeline

import (
	"github.com/storeport/migrator/internal/domain/migration"
)

// Linker records the mapping from source origin keys to the records created
// on the target, so later phases (subscriptions) can resolve the target
// product and price a dependent entity must attach to.
//
// A missing mapping is a per-item condition, not a fatal one: the owning
// product may legitimately have been dropped or failed to create.
type Linker struct {
	refs map[string]migration.TargetRef
}

// NewLinker creates an empty linker.
func NewLinker() *Linker {
	return &Linker{refs: make(map[string]migration.TargetRef)}
}

// Record stores the target reference created for an origin key.
func (l *Linker) Record(origin migration.OriginKey, ref migration.TargetRef) {
	l.refs[origin.String()] = ref
}

// Lookup resolves an origin key to its target reference.
func (l *Linker) Lookup(origin migration.OriginKey) (migration.TargetRef, bool) {
	ref, ok := l.refs[origin.String()]
	return ref, ok
}

// Len returns the number of recorded mappings.
func (l *Linker) Len() int {
	return len(l.refs)
}
