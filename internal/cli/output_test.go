package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/pipeline"
	"github.com/datanexus/crmstore/internal/store"
	"github.com/datanexus/crmstore/internal/tenant"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"company": "Acme Corp"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeInvalidCredentials, "login failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "login failed", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"company": "Acme Corp", "identifier": "Acme Corp.db"}
	err := formatter.Error(ErrCodeDuplicate, "registration failed", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Registered Acme Corp")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Registered Acme Corp")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error(ErrCodeInvalidInput, "unknown stage", map[string]string{"stage": "PERDIDO"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E003]")
	assert.Contains(t, buf.String(), "unknown stage")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"stage": "PERDIDO"}
	err := formatter.Error(ErrCodeInvalidInput, "unknown stage", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E003]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("healed relations: %s", "faqs")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "healed relations: faqs")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("opening %s", "empresa.db")

	assert.Empty(t, out.String())
	assert.Contains(t, diag.String(), "opening empresa.db")
	assert.Equal(t, diag, formatter.GetErrWriter())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail(fmt.Errorf("login %q: %w", "Acme Corp", tenant.ErrInvalidCredentials))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidCredentials, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid credentials")
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "export failed", base)

	assert.Equal(t, "export failed: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))

	plain := NewExitError(ExitFailure, "refused")
	assert.Equal(t, "refused", plain.Error())
	assert.Nil(t, plain.Unwrap())

	assert.Equal(t, ExitFailure, GetExitCode(base))
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"inserted": 9},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    ErrCodeStorage,
		Message: "create relation \"faqs\" failed",
		Details: []string{"disk I/O error"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E010", decoded.Code)
	assert.Equal(t, cliErr.Message, decoded.Message)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"credentials", tenant.ErrInvalidCredentials, ErrCodeInvalidCredentials, ExitFailure},
		{"duplicate tenant", tenant.ErrDuplicateTenant, ErrCodeDuplicate, ExitFailure},
		{"collision", tenant.ErrIdentifierCollision, ErrCodeDuplicate, ExitFailure},
		{"duplicate key", crm.ErrDuplicateKey, ErrCodeDuplicate, ExitFailure},
		{"reserved", tenant.ErrReservedIdentifier, ErrCodeInvalidInput, ExitFailure},
		{"invalid record", crm.ErrInvalidRecord, ErrCodeInvalidInput, ExitFailure},
		{"unknown stage", pipeline.ErrUnknownStage, ErrCodeInvalidInput, ExitFailure},
		{"unknown tenant", tenant.ErrUnknownTenant, ErrCodeUnknownTenant, ExitFailure},
		{"schema", &store.SchemaError{Relation: "faqs", Err: errors.New("boom")}, ErrCodeStorage, ExitCommandError},
		{"execution", &store.ExecutionError{Statement: "SELECT 1", Err: errors.New("boom")}, ErrCodeStorage, ExitCommandError},
		{"other", errors.New("boom"), ErrCodeInternal, ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			assert.Equal(t, tt.code, ErrorCode(wrapped))
			assert.Equal(t, tt.exit, GetExitCode(classify("failed", wrapped)))
		})
	}
}
