package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
	HWID     string `json:"hwid" validate:"required"`
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	errs := GetValidationErrors(ValidateStruct(&accountInput{Username: "al", Password: "secret1", HWID: "H1"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "username", errs[0].Field)
	assert.Equal(t, "min", errs[0].Tag)
}

func TestFirstValidationErrorPrefersMissingFields(t *testing.T) {
	errs := GetValidationErrors(ValidateStruct(&accountInput{Username: "al", Password: "123"}))
	first := FirstValidationError(errs)
	require.NotNil(t, first)
	assert.Equal(t, "hwid", first.Field)
	assert.Equal(t, "required", first.Tag)

	errs = GetValidationErrors(ValidateStruct(&accountInput{Username: "al", Password: "123", HWID: "H1"}))
	first = FirstValidationError(errs)
	require.NotNil(t, first)
	assert.Equal(t, "username", first.Field)

	assert.Nil(t, FirstValidationError(GetValidationErrors(ValidateStruct(&accountInput{
		Username: "alice", Password: "secret1", HWID: "H1",
	}))))
}
