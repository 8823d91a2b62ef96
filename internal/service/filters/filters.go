package filters

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/patients-api/internal/model"
)

// State is the patient list filter selection of one session. The zero value
// means no filtering.
type State struct {
	SearchTerm   string `json:"searchTerm"`
	StatusFilter string `json:"statusFilter"`
}

func (s *State) SetSearchTerm(term string) {
	s.SearchTerm = term
}

func (s *State) SetStatusFilter(status string) {
	s.StatusFilter = status
}

// Clear resets both filters.
func (s *State) Clear() {
	*s = State{}
}

// Apply fills the query's search and status from the state where the query
// leaves them empty.
func (s State) Apply(q *model.ListPatientsQuery) {
	if q.Search == "" {
		q.Search = s.SearchTerm
	}
	if q.Status == "" {
		q.Status = s.StatusFilter
	}
}

// Patch carries a partial update; nil fields are left alone.
type Patch struct {
	SearchTerm   *string `json:"searchTerm" form:"searchTerm"`
	StatusFilter *string `json:"statusFilter" form:"statusFilter"`
}

func (p Patch) applyTo(s *State) {
	if p.SearchTerm != nil {
		s.SetSearchTerm(*p.SearchTerm)
	}
	if p.StatusFilter != nil {
		s.SetStatusFilter(*p.StatusFilter)
	}
}

// Store keeps one State per session in process memory. Sessions idle for
// longer than the ttl are forgotten.
type Store struct {
	mu    sync.Mutex
	items *gocache.Cache
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{items: gocache.New(ttl, cleanup)}
}

// Get returns the session's state and extends its lifetime.
func (st *Store) Get(session string) State {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.load(session)
	if s != (State{}) {
		st.items.SetDefault(session, s)
	}
	return s
}

// Update applies p to the session's state and returns the result.
func (st *Store) Update(session string, p Patch) State {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.load(session)
	p.applyTo(&s)
	st.save(session, s)
	return s
}

// Clear resets the session's filters.
func (st *Store) Clear(session string) State {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.items.Delete(session)
	return State{}
}

func (st *Store) load(session string) State {
	if v, ok := st.items.Get(session); ok {
		if s, ok := v.(State); ok {
			return s
		}
	}
	return State{}
}

func (st *Store) save(session string, s State) {
	if s == (State{}) {
		st.items.Delete(session)
		return
	}
	st.items.SetDefault(session, s)
}
