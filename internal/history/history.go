package history

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultCapacity is also the upper bound on history length.
const DefaultCapacity = 100

type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Handled   bool            `json:"handled"`
}

type Stats struct {
	Total       int            `json:"total"`
	Handled     int            `json:"handled"`
	Unhandled   int            `json:"unhandled"`
	PerKind     map[string]int `json:"per_kind"`
	SuccessRate float64        `json:"success_rate"`
}

// Store keeps the most recent entries, dropping the oldest once capacity is
// exceeded.
type Store struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

func New(capacity int) *Store {
	if capacity <= 0 || capacity > DefaultCapacity {
		capacity = DefaultCapacity
	}

	return &Store{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (s *Store) Capacity() int {
	return s.capacity
}

func (s *Store) Append(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, entry)
}

// All returns a copy of the entries, oldest first.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Last returns up to n of the newest entries, oldest first.
func (s *Store) Last(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}

	entries := make([]Entry, n)
	copy(entries, s.entries[len(s.entries)-n:])
	return entries
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]Entry, 0, s.capacity)
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:   len(s.entries),
		PerKind: make(map[string]int),
	}
	for _, entry := range s.entries {
		stats.PerKind[entry.Kind]++
		if entry.Handled {
			stats.Handled++
		}
	}
	stats.Unhandled = stats.Total - stats.Handled

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Handled) / float64(stats.Total) * 100
	}

	return stats
}
