package composer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Draft is one hosted composer session.
type Draft struct {
	ID        string
	Composer  *Composer
	CreatedAt time.Time

	mu       sync.Mutex
	lastUsed time.Time
}

// Touch marks the draft as recently used.
func (d *Draft) Touch() {
	d.mu.Lock()
	d.lastUsed = time.Now()
	d.mu.Unlock()
}

// LastUsed reports when the draft was last touched.
func (d *Draft) LastUsed() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastUsed
}

// Store keeps in-progress drafts in memory, keyed by id. Drafts have no
// persistence across restarts; abandoned ones are swept by the maintenance
// job.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewStore creates an empty draft store.
func NewStore() *Store {
	return &Store{drafts: make(map[string]*Draft)}
}

// Create registers a new draft around the given composer.
func (s *Store) Create(c *Composer) *Draft {
	now := time.Now()
	d := &Draft{
		ID:        uuid.NewString(),
		Composer:  c,
		CreatedAt: now,
		lastUsed:  now,
	}
	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d
}

// Get returns the draft, touching it, or nil when unknown.
func (s *Store) Get(id string) *Draft {
	s.mu.RLock()
	d := s.drafts[id]
	s.mu.RUnlock()
	if d != nil {
		d.Touch()
	}
	return d
}

// Delete discards a draft.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
}

// Len reports the number of live drafts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Sweep drops drafts idle for longer than maxIdle and returns how many were
// removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.drafts {
		if d.LastUsed().Before(cutoff) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}
