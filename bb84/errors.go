package bb84

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInsufficientMaterial is matched by every *InsufficientMaterialError.
	ErrInsufficientMaterial = errors.New("insufficient key material")
)

// A ConfigError rejects a Config before any simulation work begins.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s = %v: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// An InsufficientMaterialError reports that every attempt left fewer unchecked
// sifted bits than the requested key length. Available is the count from the
// final attempt.
type InsufficientMaterialError struct {
	Needed    int
	Available int
	Attempts  int
}

func (e *InsufficientMaterialError) Error() string {
	return fmt.Sprintf("%v: needed %d bits, had %d after %d attempt(s)",
		ErrInsufficientMaterial, e.Needed, e.Available, e.Attempts)
}

func (e *InsufficientMaterialError) Unwrap() error {
	return ErrInsufficientMaterial
}
