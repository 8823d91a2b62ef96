// Package seed fills a patient store with realistic fake records for local
// development.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
)

const (
	upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	mixedAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Seeder generates patients with a deterministic faker when given a seed.
type Seeder struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

func NewSeeder(seed int64) *Seeder {
	return &Seeder{
		faker: gofakeit.New(seed),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run inserts count patients unless the store already holds at least count.
// It returns how many were inserted.
func (s *Seeder) Run(ctx context.Context, repo repository.PatientRepository, count int) (int, error) {
	existing, err := repo.Count(ctx, &model.ListPatientsQuery{})
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	if existing >= count {
		log.Info().Int("existing", existing).Msg("Enough patients present, seeding skipped")
		return 0, nil
	}

	if err := repo.CreateBatch(ctx, s.Generate(count)); err != nil {
		return 0, fmt.Errorf("failed to insert patients: %w", err)
	}
	return count, nil
}

// Generate builds count patients. Nothing is written.
func (s *Seeder) Generate(count int) []*model.Patient {
	now := s.now()
	out := make([]*model.Patient, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.patient(now))
	}
	return out
}

func (s *Seeder) patient(now time.Time) *model.Patient {
	f := s.faker

	createdAt := f.DateRange(now.AddDate(-2, 0, 0), now)
	updatedAt := f.DateRange(createdAt, now)
	intake := f.DateRange(createdAt, updatedAt)
	dob := f.DateRange(now.AddDate(-85, 0, 0), now.AddDate(-18, 0, 0))

	p := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: createdAt.UTC(),
			UpdatedAt: updatedAt.UTC(),
		},
		Name:              f.Name(),
		Email:             ptr(strings.ToLower(f.Email())),
		Phone:             ptr(f.Phone()),
		PatientIDInternal: ptr("P" + s.alnum(upperAlnum, 8)),
		Status:            f.RandomString(model.PatientStatuses),
		InsuranceStatus:   ptr(f.RandomString(model.InsuranceStatuses)),
		IntakeDate:        intake.UTC(),
		DateOfBirth:       ptr(dob.UTC()),
	}

	if s.chance(0.8) {
		p.AssignedStaffID = ptr("S" + s.alnum(mixedAlnum, 6))
	}
	if s.chance(0.7) {
		p.LastInteractionDate = ptr(f.DateRange(intake, now).UTC())
	}
	if s.chance(0.5) {
		p.NextAppointmentDate = ptr(f.DateRange(updatedAt, updatedAt.AddDate(1, 0, 0)).UTC())
	}
	return p
}

func (s *Seeder) chance(p float64) bool {
	return s.faker.Float64() < p
}

func (s *Seeder) alnum(charset string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[s.faker.IntRange(0, len(charset)-1)]
	}
	return string(b)
}

func ptr[T any](v T) *T {
	return &v
}
