package simpleud

import (
	"errors"
	"fmt"
	"strings"

	udhttp "github.com/sugarkwork/simpleud/internal/http"
)

var (
	// ErrConfig is matched by every *ConfigError returned from New.
	ErrConfig = errors.New("simpleud: configuration error")

	// ErrNotFound is returned when the server answers 404. It stops the
	// retry loop immediately.
	ErrNotFound = errors.New("simpleud: remote file not found")

	// ErrUnexpectedStatus matches attempts that got a status other than
	// 200 or 404. Such attempts are retried.
	ErrUnexpectedStatus = errors.New("simpleud: unexpected status")

	// ErrRetriesExhausted is returned when every attempt failed.
	ErrRetriesExhausted = errors.New("simpleud: max retries exceeded")
)

// MissingField describes one required setting that could not be resolved.
type MissingField struct {
	Name   string // human-readable setting name
	Option string // functional option that supplies it
	Env    string // environment variable consulted as fallback
}

// ConfigError is returned by New when required settings are missing.
type ConfigError struct {
	Missing []MissingField
}

func (e *ConfigError) Error() string {
	names := make([]string, len(e.Missing))
	sources := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.Name
		sources[i] = m.Option + " or " + m.Env
	}
	return fmt.Sprintf("simpleud: missing %s: set them with %s",
		strings.Join(names, ", "), strings.Join(sources, "; "))
}

// Is reports ErrConfig as a match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// AttemptError records the failure of a single transfer attempt.
// StatusCode is 0 when no HTTP response was received.
type AttemptError struct {
	Attempt    int
	StatusCode int
	RequestID  string
	Err        error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Is maps transport status errors onto the package sentinels.
func (e *AttemptError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return errors.Is(e.Err, udhttp.ErrNotFound)
	case ErrUnexpectedStatus:
		return errors.Is(e.Err, udhttp.ErrUnexpectedStatus)
	}
	return false
}

// statusOf extracts the HTTP status carried by a transport error.
func statusOf(err error) int {
	var se *udhttp.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
