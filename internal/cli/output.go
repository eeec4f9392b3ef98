package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. Cron wrappers key alerting off these, so the split
// between batch failures and command misuse is part of the interface.
const (
	ExitSuccess      = 0 // all batches completed, no record failed
	ExitFailure      = 1 // records failed or an upstream query aborted a batch
	ExitCommandError = 2 // bad flags, unreadable config or input
)

// ExitError carries the process exit code alongside the error message.
type ExitError struct {
	Code    int // ExitFailure or ExitCommandError
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError from a code and message alone.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and context message to an underlying
// error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode reports the exit code for err, searching the wrap chain for an
// ExitError. Any other error maps to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success outputs a successful result in the configured format. JSON output
// encodes the payload directly; text output relies on the payload's String
// method or default formatting.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}
