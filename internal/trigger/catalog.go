package trigger

import "sync"

// Catalog is the triggers catalog — relation name to its registered
// clauses — guarded by a RWMutex the way the teacher guards its namespace
// cache (SPEC_FULL.md §4.6 "concurrency-safe catalog").
type Catalog struct {
	mu   sync.RWMutex
	sets map[string]*TriggerSet
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{sets: map[string]*TriggerSet{}}
}

// Get returns the TriggerSet registered for relation, or nil if none.
func (c *Catalog) Get(relation string) *TriggerSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets[relation]
}

// Set replaces the TriggerSet registered for relation (`::set_triggers`).
// An empty TriggerSet removes the relation's entry.
func (c *Catalog) Set(relation string, set *TriggerSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set == nil || (len(set.OnPut) == 0 && len(set.OnRm) == 0 && len(set.OnReplace) == 0) {
		delete(c.sets, relation)
		return
	}
	c.sets[relation] = set
}

// Remove drops relation's trigger clauses entirely, called when the
// relation itself is removed (`::remove`).
func (c *Catalog) Remove(relation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sets, relation)
}

// Show returns relation's registered TriggerSet and whether one is
// registered.
func (c *Catalog) Show(relation string) (*TriggerSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sets[relation]
	return s, ok
}
