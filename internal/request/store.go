package request

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity is how many requests the store keeps before evicting the
// oldest.
const DefaultCapacity = 50

// StoreConfig configures a Store.
type StoreConfig struct {
	// Capacity is the maximum number of requests retained. Oldest entries
	// are evicted first. Default: 50
	Capacity int
}

// StoreStats summarises the store contents.
type StoreStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Complete int `json:"complete"`
	Error    int `json:"error"`
	Evicted  int `json:"evicted"`
}

// Store is the authoritative request set. Feeds write to it, the UI reads
// snapshots. Every mutation of a single request happens inside one critical
// section, so readers never observe a request with a terminal state but no
// end time. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	order    []string            // insertion order, oldest first
	byID     map[string]*Request // keyed by request id
	evicted  int
	version  uint64

	onChange []func(Request)
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Store{
		capacity: cfg.Capacity,
		order:    make([]string, 0, cfg.Capacity),
		byID:     make(map[string]*Request, cfg.Capacity),
	}
}

// Add inserts a new pending request. Any terminal fields on r are cleared;
// lifecycle transitions only happen through Apply.
func (s *Store) Add(r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.State = StatePending
	r.EndTime = time.Time{}
	r.Status = 0
	r.Updates = 0

	s.mu.Lock()
	if _, exists := s.byID[r.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, r.ID)
	}

	stored := r
	s.byID[r.ID] = &stored
	s.order = append(s.order, r.ID)
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
		s.evicted++
	}
	s.version++
	callbacks := s.callbacksLocked()
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(r)
	}
	return nil
}

// Apply patches the request with the given id to a terminal state.
//
// Updates for unknown ids are ignored and report applied=false. Repeated
// terminal updates for the same id overwrite each other: the last write
// wins and the request stays a single entry. An end time earlier than the
// start time is clamped to the start time.
func (s *Store) Apply(u Update) (bool, error) {
	if err := u.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	r, ok := s.byID[u.ID]
	if !ok {
		s.mu.Unlock()
		slog.Default().Debug("request update for unknown id ignored", "id", u.ID, "state", u.State)
		return false, nil
	}

	end := u.EndTime
	if end.Before(r.StartTime) {
		slog.Default().Debug("request end before start clamped", "id", u.ID,
			"start", r.StartTime, "end", end)
		end = r.StartTime
	}
	r.EndTime = end
	r.State = u.State
	r.Status = u.Status
	r.Updates++
	updated := *r
	s.version++
	callbacks := s.callbacksLocked()
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(updated)
	}
	return true, nil
}

// Get returns the latest version of the request with the given id.
func (s *Store) Get(id string) (Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return Request{}, false
	}
	return *r, true
}

// Snapshot returns a copy of all requests in insertion order.
func (s *Store) Snapshot() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Request, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.byID[id])
	}
	return result
}

// Len returns the number of requests currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Version increases on every mutation. Readers can compare versions to skip
// rebuilding derived state.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Stats returns counts by state.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{Total: len(s.order), Evicted: s.evicted}
	for _, id := range s.order {
		switch s.byID[id].State {
		case StatePending:
			stats.Pending++
		case StateComplete:
			stats.Complete++
		case StateError:
			stats.Error++
		}
	}
	return stats
}

// OnChange registers a callback invoked after every Add or Apply that
// changed the store. Callbacks run outside the store lock.
func (s *Store) OnChange(callback func(Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, callback)
}

func (s *Store) callbacksLocked() []func(Request) {
	if len(s.onChange) == 0 {
		return nil
	}
	callbacks := make([]func(Request), len(s.onChange))
	copy(callbacks, s.onChange)
	return callbacks
}
