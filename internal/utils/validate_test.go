package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	require.NotEmpty(t, ValidatePassword("short"))
	require.NotEmpty(t, ValidatePassword("alllowercase1!"))
	require.NotEmpty(t, ValidatePassword("ALLUPPERCASE1!"))
	require.NotEmpty(t, ValidatePassword("NoDigitsHere!"))
	require.NotEmpty(t, ValidatePassword("NoSymbols123"))
	require.Empty(t, ValidatePassword("Secure@Pass1"))
}

func TestValidEmailAndMobile(t *testing.T) {
	require.True(t, ValidEmail("traveler@example.com"))
	require.False(t, ValidEmail("not-an-email"))
	require.False(t, ValidEmail("spaces in@example.com"))

	require.True(t, ValidMobile("9876543210"))
	require.True(t, ValidMobile("919876543210"))
	require.False(t, ValidMobile("12345"))
	require.False(t, ValidMobile("98765abc10"))
}

func TestValidateRegistration_CollectsAllViolations(t *testing.T) {
	errs := ValidateRegistration(RegistrationInput{
		Email:    "bad",
		Password: "weak",
		Gender:   "unknown",
	})

	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{
		"name", "email", "mobile", "password", "gender",
		"address.street", "address.city", "address.state", "address.country",
	} {
		require.True(t, fields[want], "missing violation for %s", want)
	}
}

func TestValidateRegistration_AcceptsCompleteInput(t *testing.T) {
	errs := ValidateRegistration(RegistrationInput{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Mobile:   "9876543210",
		Password: "Secure@Pass1",
		Gender:   "female",
		Street:   "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Country:  "India",
	})
	require.Empty(t, errs)
}
