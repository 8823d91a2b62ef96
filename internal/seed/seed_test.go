package seed

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository/memory"
)

// rejectingRepository fails every batch insert.
type rejectingRepository struct {
	*memory.PatientRepository
}

func (rejectingRepository) CreateBatch(context.Context, []*model.Patient) error {
	return errors.New("insert failed")
}

var (
	internalID = regexp.MustCompile(`^P[A-Z0-9]{8}$`)
	staffID    = regexp.MustCompile(`^S[A-Za-z0-9]{6}$`)
)

func TestGenerate(t *testing.T) {
	patients := NewSeeder(42).Generate(50)
	require.Len(t, patients, 50)

	for _, p := range patients {
		assert.NotEmpty(t, p.Name)
		assert.Contains(t, model.PatientStatuses, p.Status)
		require.NotNil(t, p.InsuranceStatus)
		assert.Contains(t, model.InsuranceStatuses, *p.InsuranceStatus)
		require.NotNil(t, p.PatientIDInternal)
		assert.Regexp(t, internalID, *p.PatientIDInternal)
		if p.AssignedStaffID != nil {
			assert.Regexp(t, staffID, *p.AssignedStaffID)
		}
		assert.False(t, p.IsArchived)
		assert.False(t, p.UpdatedAt.Before(p.CreatedAt))
		assert.False(t, p.IntakeDate.Before(p.CreatedAt))
		assert.False(t, p.IntakeDate.After(p.UpdatedAt))
		require.NotNil(t, p.Email)
		assert.Equal(t, strings.ToLower(*p.Email), *p.Email)
	}
}

func TestRun_SkipsWhenEnoughPatients(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPatientRepository()
	s := NewSeeder(1)

	n, err := s.Run(ctx, repo, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.Run(ctx, repo, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := repo.Count(ctx, &model.ListPatientsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestRun_FailedInsertLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	repo := rejectingRepository{memory.NewPatientRepository()}

	n, err := NewSeeder(1).Run(ctx, repo, 5)
	assert.Error(t, err)
	assert.Zero(t, n)

	total, err := repo.Count(ctx, &model.ListPatientsQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
