package apperr

import (
	"errors"
	"fmt"
)

// Sentinels for the orchestrator's error taxonomy. Services wrap these
// with detail messages; callers match with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid split config")
	ErrInvalidState      = errors.New("invalid job state")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessing = errors.New("already processing")
)

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func InvalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// HTTPStatus maps a taxonomy error onto the status code the API layer
// should answer with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfig):
		return 400
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrAlreadyProcessing):
		return 409
	default:
		return 500
	}
}
