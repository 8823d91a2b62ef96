package event

import (
	"context"
	"errors"

	"github.com/jwalitptl/patients-api/internal/model"
)

// Refresher is told about every successful patient mutation so that views
// built from the patient list can be refreshed.
type Refresher interface {
	Refresh(ctx context.Context, change model.PatientChange) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, change model.PatientChange) error

func (f RefresherFunc) Refresh(ctx context.Context, change model.PatientChange) error {
	return f(ctx, change)
}

// Refreshers fans a change out to every member, in order. All members run
// even when one fails; the failures are joined.
type Refreshers []Refresher

func (rs Refreshers) Refresh(ctx context.Context, change model.PatientChange) error {
	var errs []error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Refresh(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
