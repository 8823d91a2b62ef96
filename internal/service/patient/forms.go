package patient

import (
	"errors"
	"time"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/pkg/validator"
)

// newPatientFromForm converts a validated create form. Blank optional
// fields are stored as NULL.
func newPatientFromForm(f *model.CreatePatientForm) (*model.Patient, error) {
	intake, err := validator.ParseDate(f.IntakeDate)
	if err != nil {
		return nil, errors.New("Intake date is required and must be a valid date.")
	}

	p := &model.Patient{
		Name:              f.Name,
		Email:             text(f.Email),
		Phone:             text(f.Phone),
		PatientIDInternal: text(f.PatientIDInternal),
		AssignedStaffID:   text(f.AssignedStaffID),
		Status:            f.Status,
		InsuranceStatus:   text(f.InsuranceStatus),
		IntakeDate:        intake,
	}

	if p.LastInteractionDate, err = date(f.LastInteractionDate); err != nil {
		return nil, errors.New("Last interaction date must be a valid date.")
	}
	if p.NextAppointmentDate, err = date(f.NextAppointmentDate); err != nil {
		return nil, errors.New("Next appointment date must be a valid date.")
	}
	if p.DateOfBirth, err = date(f.DateOfBirth); err != nil {
		return nil, errors.New("Date of birth must be a valid date.")
	}
	return p, nil
}

// patchFromForm converts a validated update form. A nil form field is left
// alone; an empty optional field clears the column.
func patchFromForm(f *model.UpdatePatientForm) (*model.PatientPatch, error) {
	p := &model.PatientPatch{
		Name:              f.Name,
		Email:             optText(f.Email),
		Phone:             optText(f.Phone),
		PatientIDInternal: optText(f.PatientIDInternal),
		AssignedStaffID:   optText(f.AssignedStaffID),
		Status:            f.Status,
		InsuranceStatus:   optText(f.InsuranceStatus),
	}

	var err error
	if f.IntakeDate != nil {
		intake, err := validator.ParseDate(*f.IntakeDate)
		if err != nil {
			return nil, errors.New("Intake date must be a valid date.")
		}
		p.IntakeDate = &intake
	}
	if p.LastInteractionDate, err = optDate(f.LastInteractionDate); err != nil {
		return nil, errors.New("Last interaction date must be a valid date.")
	}
	if p.NextAppointmentDate, err = optDate(f.NextAppointmentDate); err != nil {
		return nil, errors.New("Next appointment date must be a valid date.")
	}
	if p.DateOfBirth, err = optDate(f.DateOfBirth); err != nil {
		return nil, errors.New("Date of birth must be a valid date.")
	}
	return p, nil
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func date(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := validator.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optText(s *string) model.Opt[string] {
	switch {
	case s == nil:
		return model.Opt[string]{}
	case *s == "":
		return model.Null[string]()
	default:
		return model.Some(*s)
	}
}

func optDate(s *string) (model.Opt[time.Time], error) {
	switch {
	case s == nil:
		return model.Opt[time.Time]{}, nil
	case *s == "":
		return model.Null[time.Time](), nil
	}
	t, err := validator.ParseDate(*s)
	if err != nil {
		return model.Opt[time.Time]{}, err
	}
	return model.Some(t), nil
}
