package model

// CreatePatientForm is the raw create submission. Dates arrive as text and
// are coerced after validation.
type CreatePatientForm struct {
	Name                string `form:"name" json:"name" validate:"required" msg:"Name is required."`
	Email               string `form:"email" json:"email" validate:"omitempty,email" msg:"Invalid email address."`
	Phone               string `form:"phone" json:"phone"`
	Status              string `form:"status" json:"status" validate:"required" msg:"Status is required."`
	IntakeDate          string `form:"intakeDate" json:"intakeDate" validate:"required,date" msg:"Intake date is required and must be a valid date."`
	PatientIDInternal   string `form:"patientIdInternal" json:"patientIdInternal"`
	AssignedStaffID     string `form:"assignedStaffId" json:"assignedStaffId"`
	LastInteractionDate string `form:"lastInteractionDate" json:"lastInteractionDate" validate:"omitempty,date" msg:"Last interaction date must be a valid date."`
	NextAppointmentDate string `form:"nextAppointmentDate" json:"nextAppointmentDate" validate:"omitempty,date" msg:"Next appointment date must be a valid date."`
	InsuranceStatus     string `form:"insuranceStatus" json:"insuranceStatus"`
	DateOfBirth         string `form:"dateOfBirth" json:"dateOfBirth" validate:"omitempty,date" msg:"Date of birth must be a valid date."`
}

// Fields returns the non-empty submitted values for form re-population.
func (f *CreatePatientForm) Fields() map[string]string {
	return collect(map[string]*string{
		"name":                &f.Name,
		"email":               &f.Email,
		"phone":               &f.Phone,
		"status":              &f.Status,
		"intakeDate":          &f.IntakeDate,
		"patientIdInternal":   &f.PatientIDInternal,
		"assignedStaffId":     &f.AssignedStaffID,
		"lastInteractionDate": &f.LastInteractionDate,
		"nextAppointmentDate": &f.NextAppointmentDate,
		"insuranceStatus":     &f.InsuranceStatus,
		"dateOfBirth":         &f.DateOfBirth,
	})
}

// UpdatePatientForm is a partial edit. A nil field was not submitted; an empty
// optional field clears the column.
type UpdatePatientForm struct {
	ID                  string  `form:"id" json:"id" validate:"required,uuid" msg:"Invalid patient ID."`
	Name                *string `form:"name" json:"name" validate:"omitnil,min=1" msg:"Name is required."`
	Email               *string `form:"email" json:"email" validate:"omitnil,len=0|email" msg:"Invalid email address."`
	Phone               *string `form:"phone" json:"phone"`
	Status              *string `form:"status" json:"status" validate:"omitnil,min=1" msg:"Status is required."`
	IntakeDate          *string `form:"intakeDate" json:"intakeDate" validate:"omitnil,date" msg:"Intake date must be a valid date."`
	PatientIDInternal   *string `form:"patientIdInternal" json:"patientIdInternal"`
	AssignedStaffID     *string `form:"assignedStaffId" json:"assignedStaffId"`
	LastInteractionDate *string `form:"lastInteractionDate" json:"lastInteractionDate" validate:"omitnil,len=0|date" msg:"Last interaction date must be a valid date."`
	NextAppointmentDate *string `form:"nextAppointmentDate" json:"nextAppointmentDate" validate:"omitnil,len=0|date" msg:"Next appointment date must be a valid date."`
	InsuranceStatus     *string `form:"insuranceStatus" json:"insuranceStatus"`
	DateOfBirth         *string `form:"dateOfBirth" json:"dateOfBirth" validate:"omitnil,len=0|date" msg:"Date of birth must be a valid date."`
}

func (f *UpdatePatientForm) Fields() map[string]string {
	fields := collectPtr(map[string]*string{
		"name":                f.Name,
		"email":               f.Email,
		"phone":               f.Phone,
		"status":              f.Status,
		"intakeDate":          f.IntakeDate,
		"patientIdInternal":   f.PatientIDInternal,
		"assignedStaffId":     f.AssignedStaffID,
		"lastInteractionDate": f.LastInteractionDate,
		"nextAppointmentDate": f.NextAppointmentDate,
		"insuranceStatus":     f.InsuranceStatus,
		"dateOfBirth":         f.DateOfBirth,
	})
	if f.ID != "" {
		fields["id"] = f.ID
	}
	return fields
}

type ArchivePatientForm struct {
	ID string `form:"id" json:"id" validate:"required,uuid" msg:"Invalid patient ID."`
}

type UpdatePatientStatusForm struct {
	ID     string `form:"id" json:"id" validate:"required,uuid" msg:"Invalid patient ID."`
	Status string `form:"status" json:"status" validate:"required" msg:"Status cannot be empty."`
}

// MutationResult is the response body of every patient mutation.
type MutationResult struct {
	Message string            `json:"message"`
	Issues  []string          `json:"issues,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	ID      string            `json:"id,omitempty"`
	Status  string            `json:"status,omitempty"`
	Patient *Patient          `json:"patient,omitempty"`
}

func collect(in map[string]*string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if *v != "" {
			out[k] = *v
		}
	}
	return out
}

func collectPtr(in map[string]*string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}
