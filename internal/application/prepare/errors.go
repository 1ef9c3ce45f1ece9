package prepare

import (
	"errors"
	"fmt"
)

var ErrPreparation = errors.New("preparation failed")

// PreparationError reports which input could not be materialized.
type PreparationError struct {
	Step string
	Err  error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPreparation, e.Step, e.Err)
}

func (e *PreparationError) Unwrap() []error { return []error{ErrPreparation, e.Err} }

func failed(step string, err error) error {
	return &PreparationError{Step: step, Err: err}
}
