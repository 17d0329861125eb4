package cli

import (
	"errors"
	"fmt"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/source"
)

// Process exit codes.
const (
	ExitOK = 0

	// ExitFailure is returned for any error not covered below.
	ExitFailure = 1

	// ExitConfig is returned when the configuration cannot be loaded.
	ExitConfig = 2

	// ExitPartial is returned when a run finished but some files could not
	// be removed.
	ExitPartial = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	var valErr config.ValidationError
	if errors.As(err, &cfgErr) || errors.As(err, &valErr) {
		return ExitConfig
	}

	var rmErr *source.RemoveError
	if errors.As(err, &rmErr) {
		return ExitPartial
	}
	return ExitFailure
}
