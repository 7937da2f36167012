package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agencyhub/pkg/domain-errors"
)

type item struct {
	Code  string   `json:"code" validate:"required,min=2,max=5"`
	Phone string   `json:"phone" validate:"required,mobile"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}

type order struct {
	Owner string `json:"owner" validate:"required"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func TestStruct(t *testing.T) {
	price := 10.0
	negative := -1.0

	t.Run("valid input", func(t *testing.T) {
		err := Struct(order{Owner: "x", Items: []item{{Code: "ab", Phone: "+1 555 123 4567", Price: &price}}}, nil)
		assert.NoError(t, err)
	})

	t.Run("reports each violation with json paths and custom messages", func(t *testing.T) {
		err := Struct(order{Items: []item{{Code: "a", Phone: "call me", Price: &negative}}}, Messages{
			"owner":         "Owner is required",
			"items.*.phone": "Valid phone number is required",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, FailedMessage, dErrors.MessageOf(err, ""))

		fields := dErrors.FieldsOf(err)
		require.Len(t, fields, 4)
		assert.Equal(t, dErrors.FieldError{Field: "owner", Rule: "required", Message: "Owner is required"}, fields[0])
		assert.Equal(t, "items[0].code", fields[1].Field)
		assert.Equal(t, "min", fields[1].Rule)
		assert.Equal(t, "Valid phone number is required", fields[2].Message)
		assert.Equal(t, "gte", fields[3].Rule)
	})

	t.Run("empty slice fails min", func(t *testing.T) {
		err := Struct(order{Owner: "x", Items: []item{}}, nil)
		require.Error(t, err)
		assert.Equal(t, "items", dErrors.FieldsOf(err)[0].Field)
	})
}

func TestIsMobilePhone(t *testing.T) {
	valid := []string{"5551234567", "+919876543210", "555-123-4567", "+44 20 7946 0958", "555.123.4567"}
	for _, v := range valid {
		assert.True(t, IsMobilePhone(v), v)
	}
	invalid := []string{"", "+", "12345", "1234567890123456", "555--1234567", "555-1234567-", "phone", "(555) 1234567"}
	for _, v := range invalid {
		assert.False(t, IsMobilePhone(v), v)
	}
}
