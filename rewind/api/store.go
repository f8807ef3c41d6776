package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

// Report is one stored aggregation result.
type Report struct {
	ID        string       `json:"id"`
	Year      int          `json:"year"`
	CreatedAt time.Time    `json:"createdAt"`
	Stats     rewind.Stats `json:"stats"`
}

// Store keeps reports in process memory. Once full, the oldest report is evicted first.
type Store struct {
	mu      sync.Mutex
	max     int
	reports *orderedmap.OrderedMap[string, Report]
	now     func() time.Time
}

// NewStore returns a store holding at most max reports; max <= 0 means unbounded.
func NewStore(max int) *Store {
	return &Store{
		max:     max,
		reports: orderedmap.New[string, Report](),
		now:     time.Now,
	}
}

// Put stores stats under a fresh id and returns the stored report.
func (s *Store) Put(year int, stats rewind.Stats) Report {
	rep := Report{
		ID:    uuid.NewString(),
		Year:  year,
		Stats: stats,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rep.CreatedAt = s.now().UTC()
	s.reports.Set(rep.ID, rep)
	for s.max > 0 && s.reports.Len() > s.max {
		s.reports.Delete(s.reports.Oldest().Key)
	}
	return rep
}

func (s *Store) Get(id string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.Get(id)
}

// Delete removes id and reports whether it was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reports.Delete(id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.Len()
}
