package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patients-api/internal/model"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		// CreateBatch inserts every patient or none of them.
		CreateBatch(ctx context.Context, patients []*model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		// Update applies patch and stamps updated_at with a value strictly
		// later than the previous one (at least at). Returns the stored row.
		Update(ctx context.Context, id uuid.UUID, patch *model.PatientPatch, at time.Time) (*model.Patient, error)
		List(ctx context.Context, query *model.ListPatientsQuery) ([]*model.Patient, error)
		Count(ctx context.Context, query *model.ListPatientsQuery) (int, error)
		Ping(ctx context.Context) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending moves up to limit pending events to processing and
		// returns them. Events left in processing for longer than
		// reclaimAfter are claimed again; reclaimAfter <= 0 disables that.
		// Concurrent claimers never receive the same event.
		ClaimPending(ctx context.Context, limit int, reclaimAfter time.Duration) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
