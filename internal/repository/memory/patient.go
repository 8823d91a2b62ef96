// Package memory holds process-local repositories for development runs and
// tests. Ordering mirrors PostgreSQL: NULLs sort last ascending and first
// descending, ties broken by id.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
)

type PatientRepository struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*model.Patient
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[uuid.UUID]*model.Patient)}
}

var _ repository.PatientRepository = (*PatientRepository)(nil)

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patient.ID]; ok {
		return fmt.Errorf("failed to create patient: duplicate id %s", patient.ID)
	}
	r.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) CreateBatch(ctx context.Context, patients []*model.Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(patients))
	for _, p := range patients {
		_, stored := r.patients[p.ID]
		_, batched := seen[p.ID]
		if stored || batched {
			return fmt.Errorf("failed to create patients: duplicate id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for _, p := range patients {
		r.patients[p.ID] = clonePatient(p)
	}
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePatient(p), nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, patch *model.PatientPatch, at time.Time) (*model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	patch.Apply(p)
	if !at.After(p.UpdatedAt) {
		at = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = at
	return clonePatient(p), nil
}

func (r *PatientRepository) List(ctx context.Context, q *model.ListPatientsQuery) ([]*model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := r.filter(q)
	r.mu.RUnlock()

	sortPatients(matched, q)

	start := q.Offset()
	if start >= len(matched) {
		return []*model.Patient{}, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *PatientRepository) Count(ctx context.Context, q *model.ListPatientsQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filter(q)), nil
}

func (r *PatientRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// filter returns clones of the matching patients. Caller holds the read lock.
func (r *PatientRepository) filter(q *model.ListPatientsQuery) []*model.Patient {
	term := strings.ToLower(q.Search)
	out := make([]*model.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if term != "" && !containsFold(p.Name, term) && (p.Email == nil || !containsFold(*p.Email, term)) {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		out = append(out, clonePatient(p))
	}
	return out
}

func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

func sortPatients(ps []*model.Patient, q *model.ListPatientsQuery) {
	key := q.SortBy
	desc := q.SortOrder == model.SortDesc
	if _, ok := model.SortColumns[key]; !ok {
		key, desc = model.SortByCreatedAt, true
	}

	sort.SliceStable(ps, func(i, j int) bool {
		c := compareBy(key, ps[i], ps[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}

// compareBy orders ascending with NULL greater than any value.
func compareBy(key string, a, b *model.Patient) int {
	switch key {
	case model.SortByName:
		return strings.Compare(a.Name, b.Name)
	case model.SortByEmail:
		return compareNullable(a.Email, b.Email, strings.Compare)
	case model.SortByStatus:
		return strings.Compare(a.Status, b.Status)
	case model.SortByIntakeDate:
		return a.IntakeDate.Compare(b.IntakeDate)
	case model.SortByLastInteractionDate:
		return compareNullable(a.LastInteractionDate, b.LastInteractionDate, time.Time.Compare)
	case model.SortByNextAppointmentDate:
		return compareNullable(a.NextAppointmentDate, b.NextAppointmentDate, time.Time.Compare)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareNullable[T any](a, b *T, cmp func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp(*a, *b)
	}
}

func clonePatient(p *model.Patient) *model.Patient {
	c := *p
	c.Email = cloneVal(p.Email)
	c.Phone = cloneVal(p.Phone)
	c.PatientIDInternal = cloneVal(p.PatientIDInternal)
	c.AssignedStaffID = cloneVal(p.AssignedStaffID)
	c.InsuranceStatus = cloneVal(p.InsuranceStatus)
	c.LastInteractionDate = cloneVal(p.LastInteractionDate)
	c.NextAppointmentDate = cloneVal(p.NextAppointmentDate)
	c.DateOfBirth = cloneVal(p.DateOfBirth)
	return &c
}

func cloneVal[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
