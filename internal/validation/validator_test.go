package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signInBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateStruct_Passes(t *testing.T) {
	err := ValidateStruct(signInBody{Email: "user@example.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(signInBody{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)

	fields, ok := verr.ProblemContext().(map[string]any)["fields"].(FieldErrors)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestValidateStruct_ProblemShape(t *testing.T) {
	err := ValidateStruct(signInBody{})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ErrValidation", verr.ProblemCode())
	assert.Equal(t, 400, verr.ProblemStatus())
	assert.NotEmpty(t, verr.ProblemDetail())
}
