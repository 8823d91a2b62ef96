package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Name       string  `json:"name" validate:"required" msg:"Name is required."`
	Email      string  `json:"email" validate:"omitempty,email" msg:"Invalid email address."`
	IntakeDate string  `json:"intakeDate" validate:"required,date" msg:"Intake date is required and must be a valid date."`
	Birth      *string `json:"dateOfBirth" validate:"omitnil,len=0|date" msg:"Date of birth must be a valid date."`
	Nickname   *string `json:"nickname" validate:"omitnil,min=1"`
}

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		form   sampleForm
		issues []string
	}{
		{
			name: "valid",
			form: sampleForm{Name: "Ann", IntakeDate: "2024-03-01"},
		},
		{
			name: "empty optional date clears",
			form: sampleForm{Name: "Ann", IntakeDate: "2024-03-01", Birth: strPtr("")},
		},
		{
			name: "missing required fields in struct order",
			form: sampleForm{Email: "nope"},
			issues: []string{
				"Name is required.",
				"Invalid email address.",
				"Intake date is required and must be a valid date.",
			},
		},
		{
			name:   "bad optional date",
			form:   sampleForm{Name: "Ann", IntakeDate: "2024-03-01T10:00:00Z", Birth: strPtr("yesterday")},
			issues: []string{"Date of birth must be a valid date."},
		},
		{
			name:   "fallback message uses json name",
			form:   sampleForm{Name: "Ann", IntakeDate: "2024-03-01", Nickname: strPtr("")},
			issues: []string{"nickname is invalid."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.issues, v.Validate(&tt.form))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2024-03-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), got)

	_, err = ParseDate("03/01/2024")
	assert.Error(t, err)
}
