package terra

import "errors"

// Domain errors for model construction and stepping.
var (
	// ErrMissingField indicates a required at-node field is absent.
	ErrMissingField = errors.New("terra: required grid field missing")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("terra: parameter out of valid bounds")

	// ErrUnstable indicates a process produced NaN or Inf elevations.
	ErrUnstable = errors.New("terra: numerical instability (NaN/Inf in field)")

	// ErrUnknownModel indicates a model name with no registry entry.
	ErrUnknownModel = errors.New("terra: unknown model")

	// ErrUnknownHandler indicates a boundary handler selector with no
	// registry entry.
	ErrUnknownHandler = errors.New("terra: unknown boundary handler")

	// ErrGridShape indicates grid dimensions too small to evolve.
	ErrGridShape = errors.New("terra: grid must be at least 3x3")
)

// StepError wraps an error with the model time at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
