package engine

import (
	"sync"

	"github.com/cozodb/cozo/internal/cozoerr"
)

// accessLevel mirrors the four levels spec §6 names for a stored relation.
type accessLevel string

const (
	levelNormal    accessLevel = "normal"
	levelProtected accessLevel = "protected"
	levelReadOnly  accessLevel = "read_only"
	levelHidden    accessLevel = "hidden"
)

// accessCatalog is the relation-name -> access-level map `::access_level`
// populates, guarded the same way internal/trigger.Catalog guards its own
// map (spec §4.6 "Shared resources").
type accessCatalog struct {
	mu     sync.RWMutex
	levels map[string]accessLevel
}

func newAccessCatalog() *accessCatalog {
	return &accessCatalog{levels: map[string]accessLevel{}}
}

func (c *accessCatalog) get(relation string) accessLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if lv, ok := c.levels[relation]; ok {
		return lv
	}
	return levelNormal
}

func (c *accessCatalog) set(relation string, lv accessLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels[relation] = lv
}

func (c *accessCatalog) remove(relation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.levels, relation)
}

func (c *accessCatalog) rename(oldName, newName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lv, ok := c.levels[oldName]; ok {
		delete(c.levels, oldName)
		c.levels[newName] = lv
	}
}

// checkMutable rejects a data-mutating verb (`:put`, `:rm`) against a
// read_only relation.
func (c *accessCatalog) checkMutable(relation string) error {
	if c.get(relation) == levelReadOnly {
		return cozoerr.NewSchemaError(cozoerr.AccessDenied, relation, "relation %q is read_only", relation)
	}
	return nil
}

// checkRemovable rejects `:replace`/`::remove`/`::rename` against a
// protected or read_only relation.
func (c *accessCatalog) checkRemovable(relation string) error {
	switch c.get(relation) {
	case levelProtected, levelReadOnly:
		return cozoerr.NewSchemaError(cozoerr.AccessDenied, relation, "relation %q is %s", relation, c.get(relation))
	}
	return nil
}

func parseAccessLevel(s string) (accessLevel, bool) {
	switch accessLevel(s) {
	case levelNormal, levelProtected, levelReadOnly, levelHidden:
		return accessLevel(s), true
	}
	return "", false
}
