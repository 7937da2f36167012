package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agencyhub/pkg/domain-errors"
)

func TestRegisterRequest(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		req := RegisterRequest{Username: "  jane  ", Email: " Jane@Example.COM ", Password: "secret1"}
		req.Normalize()
		require.NoError(t, req.Validate())
		assert.Equal(t, "jane", req.Username)
		assert.Equal(t, "jane@example.com", req.Email)
	})

	t.Run("itemizes violations", func(t *testing.T) {
		req := RegisterRequest{Username: "jo", Email: "nope", Password: "123"}
		err := req.Validate()
		require.Error(t, err)
		fields := dErrors.FieldsOf(err)
		require.Len(t, fields, 3)
		assert.Equal(t, "username", fields[0].Field)
		assert.Equal(t, "Username is required and must be 3-30 characters", fields[0].Message)
		assert.Equal(t, "email", fields[1].Field)
		assert.Equal(t, "password", fields[2].Field)
	})
}

func TestLoginRequest(t *testing.T) {
	req := LoginRequest{Email: "jane@example.com"}
	err := req.Validate()
	require.Error(t, err)
	fields := dErrors.FieldsOf(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Password is required", fields[0].Message)
}
