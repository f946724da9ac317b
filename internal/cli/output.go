package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/pipeline"
	"github.com/datanexus/crmstore/internal/store"
	"github.com/datanexus/crmstore/internal/tenant"
)

// Process exit codes of crmctl.
const (
	ExitSuccess = 0
	// ExitFailure: the request was refused (credentials, duplicate company,
	// unknown stage, unregistered tenant).
	ExitFailure = 1
	// ExitCommandError: the command could not run (config, storage, I/O).
	ExitCommandError = 2
)

// Error codes of the JSON error envelope.
const (
	ErrCodeInternal           = "E000"
	ErrCodeInvalidCredentials = "E001"
	ErrCodeDuplicate          = "E002"
	ErrCodeInvalidInput       = "E003"
	ErrCodeUnknownTenant      = "E004"
	ErrCodeStorage            = "E010"
)

// ExitError carries the exit code a failed command should end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without an underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain,
// ExitFailure otherwise.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode maps a tenant, record or storage error to its envelope code.
func ErrorCode(err error) string {
	var schemaErr *store.SchemaError
	var execErr *store.ExecutionError
	switch {
	case errors.Is(err, tenant.ErrInvalidCredentials):
		return ErrCodeInvalidCredentials
	case errors.Is(err, tenant.ErrDuplicateTenant), errors.Is(err, crm.ErrDuplicateKey):
		return ErrCodeDuplicate
	case errors.Is(err, tenant.ErrEmptyIdentifier),
		errors.Is(err, tenant.ErrReservedIdentifier),
		errors.Is(err, crm.ErrInvalidRecord),
		errors.Is(err, pipeline.ErrUnknownStage):
		return ErrCodeInvalidInput
	case errors.Is(err, tenant.ErrUnknownTenant):
		return ErrCodeUnknownTenant
	case errors.As(err, &schemaErr), errors.As(err, &execErr), errors.Is(err, store.ErrInvalidIdentifier):
		return ErrCodeStorage
	}
	return ErrCodeInternal
}

// classify wraps err with ExitFailure when the request itself was refused
// and ExitCommandError when the command could not run.
func classify(message string, err error) *ExitError {
	switch ErrorCode(err) {
	case ErrCodeInternal, ErrCodeStorage:
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// CLIResponse is the JSON envelope every --format json command prints.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" | "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of the envelope.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a JSON envelope.
// Diagnostics go to ErrWriter so they never mix into JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success prints data: enveloped in JSON mode, with fmt.Println otherwise.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error prints an error with its code. Text mode shows details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Fail reports err under its ErrorCode.
func (f *OutputFormatter) Fail(err error) error {
	return f.Error(ErrorCode(err), err.Error(), nil)
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, or Writer when none is set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
