// Package history keeps an in-memory window of recently completed
// generations for the /api/history endpoint. Nothing is persisted.
package history

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Entry struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	Status     string    `json:"status"`
	Code       string    `json:"code,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Entry]
	order []string // newest last; pruned lazily against the cache
	max   int
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, max: size}, nil
}

func (s *Store) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.Get(e.ID); !ok {
		s.order = append(s.order, e.ID)
	}
	s.cache.Add(e.ID, e)
	if len(s.order) > 2*s.max {
		s.prune()
	}
}

// prune drops order entries the LRU already evicted. Caller holds the lock.
func (s *Store) prune() {
	kept := s.order[:0]
	for _, id := range s.order {
		if s.cache.Contains(id) {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	if n <= 0 || n > len(s.order) {
		n = len(s.order)
	}
	out := make([]Entry, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		if e, ok := s.cache.Get(s.order[i]); ok {
			out = append(out, e)
		}
	}
	return out
}

// Handler serves GET /api/history.
func (s *Store) Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"history": s.Recent(0),
	})
}
