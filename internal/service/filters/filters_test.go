package filters

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/patients-api/internal/model"
)

func TestState(t *testing.T) {
	var s State
	assert.Equal(t, State{}, s)

	s.SetSearchTerm("smith")
	s.SetStatusFilter("Active")
	assert.Equal(t, State{SearchTerm: "smith", StatusFilter: "Active"}, s)

	s.SetSearchTerm("")
	assert.Equal(t, "Active", s.StatusFilter, "setting one filter leaves the other alone")

	s.Clear()
	assert.Equal(t, State{}, s)
}

func TestState_Apply(t *testing.T) {
	s := State{SearchTerm: "smith", StatusFilter: "Active"}

	q := model.ListPatientsQuery{}
	s.Apply(&q)
	assert.Equal(t, "smith", q.Search)
	assert.Equal(t, "Active", q.Status)

	q = model.ListPatientsQuery{Search: "jones"}
	s.Apply(&q)
	assert.Equal(t, "jones", q.Search, "explicit query values win")
	assert.Equal(t, "Active", q.Status)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	st := NewStore(time.Hour)
	term := "smith"
	status := "Intake"

	got := st.Update("a", Patch{SearchTerm: &term})
	assert.Equal(t, State{SearchTerm: "smith"}, got)

	got = st.Update("a", Patch{StatusFilter: &status})
	assert.Equal(t, State{SearchTerm: "smith", StatusFilter: "Intake"}, got)

	assert.Equal(t, State{}, st.Get("b"))
	assert.Equal(t, got, st.Get("a"))

	assert.Equal(t, State{}, st.Clear("a"))
	assert.Equal(t, State{}, st.Get("a"))
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	st := NewStore(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			term := fmt.Sprintf("t%d", i)
			st.Update("s", Patch{SearchTerm: &term})
		}(i)
	}
	wg.Wait()

	assert.NotEmpty(t, st.Get("s").SearchTerm)
}
