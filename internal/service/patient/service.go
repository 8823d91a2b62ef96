package patient

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/patients-api/internal/cache"
	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
	"github.com/jwalitptl/patients-api/internal/service/event"
	"github.com/jwalitptl/patients-api/pkg/errors"
	"github.com/jwalitptl/patients-api/pkg/metrics"
	"github.com/jwalitptl/patients-api/pkg/validator"
)

// ErrNoChanges is returned by UpdatePatient when the form supplies no field
// besides the id. Nothing is written.
var ErrNoChanges = stderrors.New("no changes provided")

type PatientService interface {
	ListPatients(ctx context.Context, query model.ListPatientsQuery) (*model.PatientPage, error)
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	CreatePatient(ctx context.Context, form *model.CreatePatientForm) (*model.Patient, error)
	UpdatePatient(ctx context.Context, form *model.UpdatePatientForm) (*model.Patient, error)
	ArchivePatient(ctx context.Context, form *model.ArchivePatientForm) (*model.Patient, error)
	UpdatePatientStatus(ctx context.Context, form *model.UpdatePatientStatusForm) (*model.Patient, error)
}

// Config carries the optional collaborators of Service.
type Config struct {
	// MaxPageSize caps the list limit. Zero means 100.
	MaxPageSize int
	// Cache serves repeated list queries; flushed after every mutation.
	Cache *cache.ListCache
	// Refresher is told about every successful mutation.
	Refresher event.Refresher
	Metrics   *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	repo      repository.PatientRepository
	validate  *validator.Validator
	cache     *cache.ListCache
	refresher event.Refresher
	metrics   *metrics.Metrics
	now       func() time.Time
	maxLimit  int
}

func NewService(repo repository.PatientRepository, cfg Config) *Service {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var refreshers event.Refreshers
	if cfg.Cache != nil {
		refreshers = append(refreshers, cfg.Cache)
	}
	if cfg.Refresher != nil {
		refreshers = append(refreshers, cfg.Refresher)
	}

	return &Service{
		repo:      repo,
		validate:  validator.New(),
		cache:     cfg.Cache,
		refresher: refreshers,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		maxLimit:  cfg.MaxPageSize,
	}
}

var _ PatientService = (*Service)(nil)

func (s *Service) ListPatients(ctx context.Context, query model.ListPatientsQuery) (*model.PatientPage, error) {
	query.Normalize(s.maxLimit)

	if page, ok := s.cache.Get(&query); ok {
		s.metrics.CacheHit()
		s.metrics.ObserveOperation("list", "success")
		return page, nil
	}
	if s.cache != nil {
		s.metrics.CacheMiss()
	}
	gen := s.cache.Generation()

	var (
		patients []*model.Patient
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = s.repo.List(gctx, &query)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, &query)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveOperation("list", "error")
		log.Error().Err(err).
			Str("operation", "list").
			Interface("query", query).
			Msg("Failed to fetch patients")
		return nil, errors.Internal(err)
	}

	page := model.NewPatientPage(&query, patients, total)
	s.cache.Set(&query, page, gen)
	s.metrics.ObserveOperation("list", "success")
	return page, nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		s.metrics.ObserveOperation("get", "invalid")
		return nil, errors.NewValidation([]string{"Invalid patient ID."})
	}

	patient, err := s.repo.Get(ctx, pid)
	if err != nil {
		return nil, s.storeError("get", pid, err)
	}

	s.metrics.ObserveOperation("get", "success")
	return patient, nil
}

func (s *Service) CreatePatient(ctx context.Context, form *model.CreatePatientForm) (*model.Patient, error) {
	if issues := s.validate.Validate(form); len(issues) > 0 {
		s.metrics.ObserveOperation("create", "invalid")
		return nil, errors.NewValidation(issues)
	}

	patient, err := newPatientFromForm(form)
	if err != nil {
		s.metrics.ObserveOperation("create", "invalid")
		return nil, errors.NewValidation([]string{err.Error()})
	}

	now := s.now().UTC()
	patient.ID = uuid.New()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	patient.IsArchived = false

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, s.storeError("create", patient.ID, err)
	}

	s.metrics.ObserveOperation("create", "success")
	s.afterMutation(ctx, model.PatientChange{
		EventType: model.EventPatientCreated,
		PatientID: patient.ID,
		Status:    patient.Status,
		At:        now,
	})
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, form *model.UpdatePatientForm) (*model.Patient, error) {
	if issues := s.validate.Validate(form); len(issues) > 0 {
		s.metrics.ObserveOperation("update", "invalid")
		return nil, errors.NewValidation(issues)
	}

	id := uuid.MustParse(form.ID)
	patch, err := patchFromForm(form)
	if err != nil {
		s.metrics.ObserveOperation("update", "invalid")
		return nil, errors.NewValidation([]string{err.Error()})
	}
	if patch.Empty() {
		s.metrics.ObserveOperation("update", "noop")
		return nil, ErrNoChanges
	}

	patient, err := s.repo.Update(ctx, id, patch, s.now().UTC())
	if err != nil {
		return nil, s.storeError("update", id, err)
	}

	s.metrics.ObserveOperation("update", "success")
	s.afterMutation(ctx, model.PatientChange{
		EventType: model.EventPatientUpdated,
		PatientID: id,
		Status:    patient.Status,
		At:        patient.UpdatedAt,
	})
	return patient, nil
}

func (s *Service) ArchivePatient(ctx context.Context, form *model.ArchivePatientForm) (*model.Patient, error) {
	if issues := s.validate.Validate(form); len(issues) > 0 {
		s.metrics.ObserveOperation("archive", "invalid")
		return nil, errors.NewValidation(issues)
	}

	id := uuid.MustParse(form.ID)
	archived := true
	patient, err := s.repo.Update(ctx, id, &model.PatientPatch{IsArchived: &archived}, s.now().UTC())
	if err != nil {
		return nil, s.storeError("archive", id, err)
	}

	s.metrics.ObserveOperation("archive", "success")
	s.afterMutation(ctx, model.PatientChange{
		EventType: model.EventPatientArchived,
		PatientID: id,
		Status:    patient.Status,
		At:        patient.UpdatedAt,
	})
	return patient, nil
}

func (s *Service) UpdatePatientStatus(ctx context.Context, form *model.UpdatePatientStatusForm) (*model.Patient, error) {
	if issues := s.validate.Validate(form); len(issues) > 0 {
		s.metrics.ObserveOperation("update_status", "invalid")
		return nil, errors.NewValidation(issues)
	}

	id := uuid.MustParse(form.ID)
	status := form.Status
	patient, err := s.repo.Update(ctx, id, &model.PatientPatch{Status: &status}, s.now().UTC())
	if err != nil {
		return nil, s.storeError("update_status", id, err)
	}

	s.metrics.ObserveOperation("update_status", "success")
	s.afterMutation(ctx, model.PatientChange{
		EventType: model.EventPatientStatusChanged,
		PatientID: id,
		Status:    patient.Status,
		At:        patient.UpdatedAt,
	})
	return patient, nil
}

// storeError maps a repository failure onto an AppError. Anything other
// than not-found is logged.
func (s *Service) storeError(operation string, id uuid.UUID, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		s.metrics.ObserveOperation(operation, "not_found")
		return errors.NotFound("patient", err)
	}

	s.metrics.ObserveOperation(operation, "error")
	log.Error().Err(err).
		Str("operation", operation).
		Str("patient_id", id.String()).
		Msg("Patient store operation failed")
	return errors.Internal(err)
}

// afterMutation never fails the request; refresh problems are only logged.
func (s *Service) afterMutation(ctx context.Context, change model.PatientChange) {
	if err := s.refresher.Refresh(ctx, change); err != nil {
		log.Warn().Err(err).
			Str("event_type", change.EventType).
			Str("patient_id", change.PatientID.String()).
			Msg("Failed to signal patient change")
	}
}
