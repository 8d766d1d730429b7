package model

import (
	"errors"
	"fmt"
)

// InputError means no usable identity signal was supplied. It is the only
// error kind that is terminal for a whole run.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return "input: " + e.Msg }

// NewInputError creates an InputError with a formatted message.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether any error in the chain is an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// ProviderError wraps an external call failure or timeout. It is contained
// to the issuing stage or enrichment unit and substitutes a documented
// default.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a ProviderError for the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// ParseError means an LLM-backed capability returned malformed structured
// output. The caller substitutes a documented default object.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError means required external configuration (e.g. an API key) is
// missing. The affected stage is skipped with its default output.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string { return "config: missing " + e.Key }

// IsConfigError reports whether any error in the chain is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
