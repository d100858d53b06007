// Package conflicts hands purchase conflicts from the request that produced
// them to the next inventory view of the same session.
package conflicts

import (
	"sync"
	"time"

	"github.com/Skotchmaster/boutique/internal/domain"
)

type entry struct {
	conflicts []domain.Conflict
	storedAt  time.Time
}

// Mailbox is a single-reader queue keyed by session id. Drain hands the
// pending list out once; unread entries expire after the TTL.
type Mailbox struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMailbox(ttl time.Duration) *Mailbox {
	return &Mailbox{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Put replaces whatever is pending for key.
func (m *Mailbox) Put(key string, list []domain.Conflict) {
	if key == "" || len(list) == 0 {
		return
	}
	cp := make([]domain.Conflict, len(list))
	copy(cp, list)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.entries[key] = entry{conflicts: cp, storedAt: m.now()}
}

// Drain returns the pending conflicts for key and forgets them.
func (m *Mailbox) Drain(key string) []domain.Conflict {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	delete(m.entries, key)
	if m.expired(e) {
		return nil
	}
	return e.conflicts
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.entries)
}

func (m *Mailbox) expired(e entry) bool {
	return m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl
}

func (m *Mailbox) sweepLocked() {
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
}
