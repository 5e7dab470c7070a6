package muscat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfig marks problems found before any simulation work starts
	ErrConfig = errors.New("muscat: configuration error")
	// ErrEntryPoint is returned when no initial track hits the sample
	ErrEntryPoint = errors.New("muscat: unable to generate entry point into sample")
	// ErrMomentumTransfer is returned when no acceptable Q can be sampled
	ErrMomentumTransfer = errors.New("muscat: unable to select a new q")
)

// ValidationError collects every input problem, keyed by the input it concerns
type ValidationError struct {
	Issues map[string]error
}

func (e *ValidationError) add(key string, err error) {
	if e.Issues == nil {
		e.Issues = make(map[string]error)
	}
	e.Issues[key] = err
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Issues))
	for k := range e.Issues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, e.Issues[k])
	}
	return fmt.Sprintf("%v: %s", ErrConfig, strings.Join(parts, "; "))
}

// Unwrap exposes ErrConfig and every individual issue to errors.Is
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrConfig}
	for _, err := range e.Issues {
		errs = append(errs, err)
	}
	return errs
}
