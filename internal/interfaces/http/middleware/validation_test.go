package middleware

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feeInput struct {
	Fee      decimal.Decimal  `json:"fee" validate:"decimal_gte0"`
	Shipping *decimal.Decimal `json:"shipping" validate:"omitempty,decimal_gte0"`
	Note     string           `json:"note" validate:"max=5"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterValidations(v))
	return v
}

func TestDecimalGTE0(t *testing.T) {
	v := newValidator(t)
	negative := decimal.RequireFromString("-0.01")
	zero := decimal.Zero

	tests := []struct {
		name  string
		input feeInput
		valid bool
	}{
		{"zero fee", feeInput{Fee: zero}, true},
		{"positive fee", feeInput{Fee: decimal.RequireFromString("12.50")}, true},
		{"negative fee", feeInput{Fee: negative}, false},
		{"nil shipping", feeInput{Fee: zero, Shipping: nil}, true},
		{"zero shipping", feeInput{Fee: zero, Shipping: &zero}, true},
		{"negative shipping", feeInput{Fee: zero, Shipping: &negative}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidationDetails(t *testing.T) {
	v := newValidator(t)
	err := v.Struct(feeInput{Fee: decimal.NewFromInt(-3), Note: "too long"})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 2)
	assert.Equal(t, "fee", details[0].Field)
	assert.Equal(t, "Must be a non-negative amount", details[0].Message)
	assert.Equal(t, "note", details[1].Field)
	assert.Equal(t, "Must be at most 5 characters", details[1].Message)

	assert.Nil(t, ValidationDetails(assert.AnError))
}

func TestSetupValidator(t *testing.T) {
	assert.NoError(t, SetupValidator())
}
