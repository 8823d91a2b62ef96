package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/patients-api/internal/model"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "smith", escapeLike("smith"))
}

func TestBuildListQuery(t *testing.T) {
	q := &model.ListPatientsQuery{Page: 3, Limit: 10, SortBy: "name", SortOrder: "asc", Search: "ann"}
	query, args := buildListQuery(q)

	assert.Contains(t, query, `WHERE (name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')`)
	assert.Contains(t, query, `ORDER BY "name" ASC, id ASC`)
	assert.True(t, strings.HasSuffix(query, "LIMIT $2 OFFSET $3"))
	assert.Equal(t, []interface{}{"%ann%", 10, 20}, args)
}

func TestBuildListQuery_NoFilters(t *testing.T) {
	q := &model.ListPatientsQuery{Page: 1, Limit: 10, SortBy: "intakeDate", SortOrder: "desc"}
	query, args := buildListQuery(q)

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, `ORDER BY "intake_date" DESC, id ASC`)
	assert.Equal(t, []interface{}{10, 0}, args)
}

func TestBuildOrderBy_UnknownColumnFallsBack(t *testing.T) {
	q := &model.ListPatientsQuery{SortBy: "name; DROP TABLE patients", SortOrder: "asc"}
	assert.Equal(t, ` ORDER BY "created_at" DESC, id ASC`, buildOrderBy(q))
}

func TestBuildCountQuery_SharesFilters(t *testing.T) {
	q := &model.ListPatientsQuery{Page: 2, Limit: 5, Search: "a%b", Status: "Active"}
	query, args := buildCountQuery(q)

	assert.Equal(t,
		`SELECT COUNT(*) FROM patients WHERE (name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\') AND status = $2`,
		query)
	assert.Equal(t, []interface{}{`%a\%b%`, "Active"}, args)
}

func TestBuildUpdateQuery(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	status := "On Hold"
	patch := &model.PatientPatch{
		Status: &status,
		Email:  model.Null[string](),
	}

	query, args := buildUpdateQuery(id, patch, at)

	assert.True(t, strings.HasPrefix(query,
		"UPDATE patients SET email = $1, status = $2, updated_at = GREATEST($3, updated_at + interval '1 microsecond') WHERE id = $4 RETURNING "))
	assert.Len(t, args, 4)
	assert.Nil(t, args[0])
	assert.Equal(t, "On Hold", args[1])
	assert.Equal(t, at, args[2])
	assert.Equal(t, id, args[3])
}
