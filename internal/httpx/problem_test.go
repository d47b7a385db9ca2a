package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDomainError struct {
	code   string
	status int
	detail string
}

func (e *stubDomainError) Error() string          { return e.detail }
func (e *stubDomainError) ProblemCode() string    { return e.code }
func (e *stubDomainError) ProblemStatus() int     { return e.status }
func (e *stubDomainError) ProblemTitle() string   { return "" }
func (e *stubDomainError) ProblemDetail() string  { return e.detail }
func (e *stubDomainError) ProblemTypeURI() string { return "" }
func (e *stubDomainError) ProblemContext() any    { return nil }

func TestToProblem_Nil(t *testing.T) {
	assert.Nil(t, ToProblem(context.Background(), nil))
}

func TestToProblem_DomainError(t *testing.T) {
	err := ToProblem(context.Background(), &stubDomainError{
		code:   "ErrInvalidResetToken",
		status: http.StatusBadRequest,
		detail: "the provided token is invalid or has expired",
	})

	p, ok := err.(*Problem)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, p.GetStatus())
	assert.Equal(t, "ErrInvalidResetToken", p.Code)
	assert.Equal(t, "Bad Request", p.Title)
	assert.Equal(t, "urn:problem:err-invalid-reset-token", p.Type)
	assert.Equal(t, "the provided token is invalid or has expired", p.Detail)
}

func TestToProblem_WrappedDomainError(t *testing.T) {
	inner := &stubDomainError{code: "ErrNotFound", status: http.StatusNotFound, detail: "account not found"}
	wrapped := fmt.Errorf("lookup: %w", inner)

	err := ToProblem(context.Background(), wrapped)
	p, ok := err.(*Problem)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, p.GetStatus())
}

func TestToProblem_UnknownErrorBecomesInternal(t *testing.T) {
	err := ToProblem(context.Background(), errors.New("something leaked"))

	p, ok := err.(*Problem)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, p.GetStatus())
	assert.Equal(t, "ErrInternal", p.Code)
	assert.NotContains(t, p.Detail, "leaked", "internal details never reach clients")
}

func TestProblemContentType(t *testing.T) {
	p := &Problem{}
	assert.Equal(t, "application/problem+json", p.ContentType("application/json"))
	assert.Equal(t, "text/plain", p.ContentType("text/plain"))
}

func TestToKebab(t *testing.T) {
	assert.Equal(t, "err-invalid-reset-token", toKebab("ErrInvalidResetToken"))
	assert.Equal(t, "err-otp", toKebab("ErrOTP"))
	assert.Equal(t, "", toKebab(""))
}
