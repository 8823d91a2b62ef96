package model

import (
	"time"

	"github.com/google/uuid"
)

// Recommended patient statuses. The store accepts any non-empty text.
const (
	PatientStatusActive     = "Active"
	PatientStatusIntake     = "Intake"
	PatientStatusPending    = "Pending"
	PatientStatusArchived   = "Archived"
	PatientStatusOnHold     = "On Hold"
	PatientStatusDischarged = "Discharged"
)

// Recommended insurance statuses.
const (
	InsuranceStatusActive          = "Active"
	InsuranceStatusInactive        = "Inactive"
	InsuranceStatusPendingApproval = "Pending Approval"
	InsuranceStatusDenied          = "Denied"
)

var (
	PatientStatuses   = []string{PatientStatusActive, PatientStatusIntake, PatientStatusPending, PatientStatusArchived, PatientStatusOnHold, PatientStatusDischarged}
	InsuranceStatuses = []string{InsuranceStatusActive, InsuranceStatusInactive, InsuranceStatusPendingApproval, InsuranceStatusDenied}
)

type Patient struct {
	Base
	Name                string     `db:"name" json:"name"`
	Email               *string    `db:"email" json:"email"`
	Phone               *string    `db:"phone" json:"phone"`
	PatientIDInternal   *string    `db:"patient_id_internal" json:"patientIdInternal"`
	AssignedStaffID     *string    `db:"assigned_staff_id" json:"assignedStaffId"`
	Status              string     `db:"status" json:"status"`
	LastInteractionDate *time.Time `db:"last_interaction_date" json:"lastInteractionDate"`
	NextAppointmentDate *time.Time `db:"next_appointment_date" json:"nextAppointmentDate"`
	InsuranceStatus     *string    `db:"insurance_status" json:"insuranceStatus"`
	IntakeDate          time.Time  `db:"intake_date" json:"intakeDate"`
	DateOfBirth         *time.Time `db:"date_of_birth" json:"dateOfBirth"`
	IsArchived          bool       `db:"is_archived" json:"isArchived"`
}

// PatientPatch lists the columns an update touches. Nil pointers and unset
// Opts are left alone.
type PatientPatch struct {
	Name                *string
	Email               Opt[string]
	Phone               Opt[string]
	PatientIDInternal   Opt[string]
	AssignedStaffID     Opt[string]
	Status              *string
	LastInteractionDate Opt[time.Time]
	NextAppointmentDate Opt[time.Time]
	InsuranceStatus     Opt[string]
	IntakeDate          *time.Time
	DateOfBirth         Opt[time.Time]
	IsArchived          *bool
}

// Empty reports whether the patch would change nothing.
func (p *PatientPatch) Empty() bool {
	return p.Name == nil &&
		!p.Email.Set &&
		!p.Phone.Set &&
		!p.PatientIDInternal.Set &&
		!p.AssignedStaffID.Set &&
		p.Status == nil &&
		!p.LastInteractionDate.Set &&
		!p.NextAppointmentDate.Set &&
		!p.InsuranceStatus.Set &&
		p.IntakeDate == nil &&
		!p.DateOfBirth.Set &&
		p.IsArchived == nil
}

// Apply copies the supplied fields onto patient.
func (p *PatientPatch) Apply(patient *Patient) {
	if p.Name != nil {
		patient.Name = *p.Name
	}
	applyOpt(&patient.Email, p.Email)
	applyOpt(&patient.Phone, p.Phone)
	applyOpt(&patient.PatientIDInternal, p.PatientIDInternal)
	applyOpt(&patient.AssignedStaffID, p.AssignedStaffID)
	if p.Status != nil {
		patient.Status = *p.Status
	}
	applyOpt(&patient.LastInteractionDate, p.LastInteractionDate)
	applyOpt(&patient.NextAppointmentDate, p.NextAppointmentDate)
	applyOpt(&patient.InsuranceStatus, p.InsuranceStatus)
	if p.IntakeDate != nil {
		patient.IntakeDate = *p.IntakeDate
	}
	applyOpt(&patient.DateOfBirth, p.DateOfBirth)
	if p.IsArchived != nil {
		patient.IsArchived = *p.IsArchived
	}
}

func applyOpt[T any](dst **T, o Opt[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

// Sortable list columns, keyed by their public name.
const (
	SortByName                = "name"
	SortByEmail               = "email"
	SortByStatus              = "status"
	SortByIntakeDate          = "intakeDate"
	SortByCreatedAt           = "createdAt"
	SortByLastInteractionDate = "lastInteractionDate"
	SortByNextAppointmentDate = "nextAppointmentDate"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPage  = 1
	DefaultLimit = 10
)

// SortColumns maps public sort keys onto table columns.
var SortColumns = map[string]string{
	SortByName:                "name",
	SortByEmail:               "email",
	SortByStatus:              "status",
	SortByIntakeDate:          "intake_date",
	SortByCreatedAt:           "created_at",
	SortByLastInteractionDate: "last_interaction_date",
	SortByNextAppointmentDate: "next_appointment_date",
}

// ListPatientsQuery is a normalized list request. Use Normalize before
// handing it to a repository.
type ListPatientsQuery struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	Search    string `json:"search,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Normalize fills defaults and caps the limit at maxLimit (when positive).
// An unknown sort key resets both key and order to createdAt desc.
func (q *ListPatientsQuery) Normalize(maxLimit int) {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
	if _, ok := SortColumns[q.SortBy]; !ok {
		q.SortBy = SortByCreatedAt
		q.SortOrder = SortDesc
	}
	if q.SortOrder != SortDesc {
		q.SortOrder = SortAsc
	}
}

// Offset is the number of rows skipped before the page.
func (q *ListPatientsQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type PatientPage struct {
	Data []*Patient `json:"data"`
	Meta PageMeta   `json:"meta"`
}

// NewPatientPage builds the page envelope for q.
func NewPatientPage(q *ListPatientsQuery, data []*Patient, total int) *PatientPage {
	if data == nil {
		data = []*Patient{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return &PatientPage{
		Data: data,
		Meta: PageMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}
}

// PatientChange describes a successful mutation.
type PatientChange struct {
	EventType string    `json:"eventType"`
	PatientID uuid.UUID `json:"patientId"`
	Status    string    `json:"status,omitempty"`
	At        time.Time `json:"at"`
}
