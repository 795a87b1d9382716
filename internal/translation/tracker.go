package translation

import "sync"

// Tracker remembers the canonical text behind the last accepted translation.
type Tracker struct {
	mu           sync.RWMutex
	lastAccepted string
}

func NewTracker() *Tracker { return &Tracker{} }

// Accept records a successful translation of source.
func (t *Tracker) Accept(source string) {
	t.mu.Lock()
	t.lastAccepted = source
	t.mu.Unlock()
}

func (t *Tracker) LastAccepted() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAccepted
}

// IsDirty reports whether current differs from the last accepted source.
// Empty text is never dirty: there is nothing to translate.
func (t *Tracker) IsDirty(current string) bool {
	return current != "" && current != t.LastAccepted()
}
