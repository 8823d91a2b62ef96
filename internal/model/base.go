package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Opt is a patch value for a nullable column. Set reports whether the caller
// supplied the field at all; a supplied nil Value clears the column.
type Opt[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: &v}
}

// Null returns a supplied Opt that clears the column.
func Null[T any]() Opt[T] {
	return Opt[T]{Set: true}
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
