package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
	"github.com/jwalitptl/patients-api/pkg/metrics"
)

const patientColumns = `id, name, email, phone, patient_id_internal, assigned_staff_id, status,
	last_interaction_date, next_appointment_date, insurance_status, intake_date,
	date_of_birth, is_archived, created_at, updated_at`

type patientRepository struct {
	BaseRepository
	metrics *metrics.Metrics
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db), metrics: m}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.observe("patient_create", time.Now(), &err)

	return insertPatient(ctx, r.db, patient)
}

func (r *patientRepository) CreateBatch(ctx context.Context, patients []*model.Patient) (err error) {
	defer r.observe("patient_create_batch", time.Now(), &err)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, patient := range patients {
			if err := insertPatient(ctx, tx, patient); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPatient(ctx context.Context, exec sqlx.ExecerContext, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := exec.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.PatientIDInternal,
		patient.AssignedStaffID,
		patient.Status,
		patient.LastInteractionDate,
		patient.NextAppointmentDate,
		patient.InsuranceStatus,
		patient.IntakeDate,
		patient.DateOfBirth,
		patient.IsArchived,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (_ *model.Patient, err error) {
	defer r.observe("patient_get", time.Now(), &err)

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err = r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, id uuid.UUID, patch *model.PatientPatch, at time.Time) (_ *model.Patient, err error) {
	defer r.observe("patient_update", time.Now(), &err)

	query, args := buildUpdateQuery(id, patch, at)
	var patient model.Patient
	if err = r.db.GetContext(ctx, &patient, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, q *model.ListPatientsQuery) (_ []*model.Patient, err error) {
	defer r.observe("patient_list", time.Now(), &err)

	query, args := buildListQuery(q)
	patients := []*model.Patient{}
	if err = r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context, q *model.ListPatientsQuery) (_ int, err error) {
	defer r.observe("patient_count", time.Now(), &err)

	query, args := buildCountQuery(q)
	var total int
	if err = r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return total, nil
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildWhere(q *model.ListPatientsQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, `(name ILIKE $`+n+` ESCAPE '\' OR email ILIKE $`+n+` ESCAPE '\')`)
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildOrderBy only ever emits columns from model.SortColumns.
func buildOrderBy(q *model.ListPatientsQuery) string {
	column, ok := model.SortColumns[q.SortBy]
	dir := "ASC"
	if !ok {
		column = model.SortColumns[model.SortByCreatedAt]
		dir = "DESC"
	} else if q.SortOrder == model.SortDesc {
		dir = "DESC"
	}
	return " ORDER BY " + pq.QuoteIdentifier(column) + " " + dir + ", id ASC"
}

func buildListQuery(q *model.ListPatientsQuery) (string, []interface{}) {
	where, args := buildWhere(q)
	args = append(args, q.Limit, q.Offset())
	query := "SELECT " + patientColumns + " FROM patients" + where + buildOrderBy(q) +
		" LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	return query, args
}

func buildCountQuery(q *model.ListPatientsQuery) (string, []interface{}) {
	where, args := buildWhere(q)
	return "SELECT COUNT(*) FROM patients" + where, args
}

func buildUpdateQuery(id uuid.UUID, p *model.PatientPatch, at time.Time) (string, []interface{}) {
	var sets []string
	var args []interface{}

	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Email.Set {
		set("email", p.Email.Value)
	}
	if p.Phone.Set {
		set("phone", p.Phone.Value)
	}
	if p.PatientIDInternal.Set {
		set("patient_id_internal", p.PatientIDInternal.Value)
	}
	if p.AssignedStaffID.Set {
		set("assigned_staff_id", p.AssignedStaffID.Value)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.LastInteractionDate.Set {
		set("last_interaction_date", p.LastInteractionDate.Value)
	}
	if p.NextAppointmentDate.Set {
		set("next_appointment_date", p.NextAppointmentDate.Value)
	}
	if p.InsuranceStatus.Set {
		set("insurance_status", p.InsuranceStatus.Value)
	}
	if p.IntakeDate != nil {
		set("intake_date", *p.IntakeDate)
	}
	if p.DateOfBirth.Set {
		set("date_of_birth", p.DateOfBirth.Value)
	}
	if p.IsArchived != nil {
		set("is_archived", *p.IsArchived)
	}

	// updated_at must move forward even when the clock does not.
	args = append(args, at)
	sets = append(sets, "updated_at = GREATEST($"+strconv.Itoa(len(args))+", updated_at + interval '1 microsecond')")

	args = append(args, id)
	query := "UPDATE patients SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + patientColumns
	return query, args
}

func (r *patientRepository) observe(operation string, start time.Time, err *error) {
	r.metrics.ObserveDB(operation, start, *err)
}
