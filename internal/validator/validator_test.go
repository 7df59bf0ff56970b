package validator

import (
	"testing"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&sample{Email: "ana@example.com", Name: "Ana"}))

	err := ValidateRequest(&sample{Email: "not-an-email"})
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("luis@example.co"))
	assert.True(t, ierr.IsValidation(ValidateEmail("")))
	assert.True(t, ierr.IsValidation(ValidateEmail("luis@")))
}
