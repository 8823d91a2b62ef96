package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/patients-api/internal/model"
)

// ListCache keeps recently served patient pages keyed by their normalized
// query. A nil *ListCache is a valid, always-missing cache.
//
// Every Invalidate bumps a generation number. Readers take the generation
// before querying the store and hand it back to Set, so a page read before a
// mutation is never stored after that mutation's flush.
type ListCache struct {
	c *gocache.Cache

	mu  sync.Mutex
	gen uint64
}

func NewListCache(ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ListCache{c: gocache.New(ttl, 2*ttl)}
}

// Key renders a normalized query as a cache key.
func Key(q *model.ListPatientsQuery) string {
	return strings.Join([]string{
		strconv.Itoa(q.Page),
		strconv.Itoa(q.Limit),
		q.SortBy,
		q.SortOrder,
		strconv.Quote(q.Search),
		strconv.Quote(q.Status),
	}, "|")
}

func (l *ListCache) Get(q *model.ListPatientsQuery) (*model.PatientPage, bool) {
	if l == nil {
		return nil, false
	}
	v, ok := l.c.Get(Key(q))
	if !ok {
		return nil, false
	}
	page, ok := v.(*model.PatientPage)
	return page, ok
}

// Generation identifies the current cache contents. Take it before reading
// the store and pass it to Set.
func (l *ListCache) Generation() uint64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Set stores page unless the cache was invalidated since gen was taken. It
// reports whether the page was stored.
func (l *ListCache) Set(q *model.ListPatientsQuery, page *model.PatientPage, gen uint64) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	l.c.SetDefault(Key(q), page)
	return true
}

// Invalidate drops every cached page.
func (l *ListCache) Invalidate() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.c.Flush()
}

func (l *ListCache) Len() int {
	if l == nil {
		return 0
	}
	return l.c.ItemCount()
}

// Refresh drops cached pages after any patient change.
func (l *ListCache) Refresh(_ context.Context, _ model.PatientChange) error {
	l.Invalidate()
	return nil
}
