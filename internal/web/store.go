package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
)

// DefaultStoreCapacity is the number of plans kept when NewPlanStore is
// given a non-positive capacity.
const DefaultStoreCapacity = 64

// StoredPlan is a computed plan with its identity.
type StoredPlan struct {
	ID        string       `json:"id"`
	Title     string       `json:"title,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Summary   plan.Summary `json:"summary"`
	Plan      *plan.Plan   `json:"-"`
}

// PlanStore keeps the most recent plans in memory. When full, the oldest
// plan is evicted. Safe for concurrent use.
type PlanStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string // insertion order, oldest first
	plans    map[string]*StoredPlan
	now      func() time.Time
}

// NewPlanStore creates a store holding at most capacity plans.
func NewPlanStore(capacity int) *PlanStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &PlanStore{
		capacity: capacity,
		plans:    make(map[string]*StoredPlan, capacity),
		now:      time.Now,
	}
}

// Add stores p under a new random ID and returns the stored entry.
func (s *PlanStore) Add(title string, p *plan.Plan) *StoredPlan {
	sp := &StoredPlan{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: s.now().UTC(),
		Summary:   p.Summary(),
		Plan:      p,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.plans, oldest)
	}
	s.order = append(s.order, sp.ID)
	s.plans[sp.ID] = sp
	return sp
}

// Get returns the plan stored under id.
func (s *PlanStore) Get(id string) (*StoredPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.plans[id]
	return sp, ok
}

// List returns the stored plans, newest first.
func (s *PlanStore) List() []*StoredPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StoredPlan, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.plans[s.order[i]])
	}
	return out
}

// Len returns the number of stored plans.
func (s *PlanStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}
