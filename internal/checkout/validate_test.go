package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RawCheckoutInput {
	return RawCheckoutInput{
		Email:         "ana.silva@example.com",
		Phone:         "+351 912 345 678",
		FirstName:     "Ana",
		LastName:      "Silva",
		Address:       "Rua das Flores 12, 3º Esq",
		City:          "Lisboa",
		PostalCode:    "1234-567",
		Country:       "Portugal",
		PaymentMethod: "card",
	}
}

func TestValidateAcceptsValidInput(t *testing.T) {
	data, errs := Validate(validInput())
	require.Empty(t, errs)
	assert.Equal(t, "ana.silva@example.com", data.Email)
	assert.Equal(t, "Portugal", data.Country)
}

func TestValidateNormalization(t *testing.T) {
	input := validInput()
	input.Email = "  Ana.Silva@Example.COM  "
	input.FirstName = "  Ana "
	input.City = " Lisboa "

	data, errs := Validate(input)
	require.Empty(t, errs)
	assert.Equal(t, "ana.silva@example.com", data.Email)
	assert.Equal(t, "Ana", data.FirstName)
	assert.Equal(t, "Lisboa", data.City)
}

// Re-validating sanitized output must be accepted and unchanged.
func TestValidateIdempotentNormalization(t *testing.T) {
	data, errs := Validate(validInput())
	require.Empty(t, errs)

	again, errs := Validate(RawCheckoutInput{
		Email:         data.Email,
		Phone:         data.Phone,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		Address:       data.Address,
		City:          data.City,
		PostalCode:    data.PostalCode,
		Country:       data.Country,
		PaymentMethod: data.PaymentMethod,
	})
	require.Empty(t, errs)
	assert.Equal(t, data, again)
}

func TestValidatePostalCodeByCountry(t *testing.T) {
	tests := []struct {
		name       string
		country    string
		postalCode string
		wantErr    bool
	}{
		{"portugal short form rejected", "Portugal", "1234", true},
		{"portugal full form accepted", "Portugal", "1234-567", false},
		{"belgium four digits accepted", "Belgium", "1234", false},
		{"belgium five digits rejected", "Belgium", "12345", true},
		{"germany five digits accepted", "Germany", "10115", false},
		{"netherlands with letters accepted", "Netherlands", "1012 AB", false},
		{"uk pattern accepted", "United Kingdom", "SW1A 1AA", false},
		{"us zip accepted", "United States", "90210", false},
		{"us zip+4 accepted", "United States", "90210-1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			input.Country = tt.country
			input.PostalCode = tt.postalCode

			_, errs := Validate(input)
			if tt.wantErr {
				require.Contains(t, errs, "postal_code")
				assert.NotContains(t, errs, "country")
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawCheckoutInput)
		field  string
	}{
		{"missing email", func(in *RawCheckoutInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *RawCheckoutInput) { in.Email = "not-an-email" }, "email"},
		{"email too long", func(in *RawCheckoutInput) { in.Email = strings.Repeat("a", 95) + "@example.com" }, "email"},
		{"phone too few digits", func(in *RawCheckoutInput) { in.Phone = "+351 12" }, "phone"},
		{"phone too many digits", func(in *RawCheckoutInput) { in.Phone = "1234567890123456" }, "phone"},
		{"phone with letters", func(in *RawCheckoutInput) { in.Phone = "call-me-maybe" }, "phone"},
		{"first name too short", func(in *RawCheckoutInput) { in.FirstName = "A" }, "first_name"},
		{"first name with digits", func(in *RawCheckoutInput) { in.FirstName = "An4" }, "first_name"},
		{"last name too long", func(in *RawCheckoutInput) { in.LastName = strings.Repeat("a", 51) }, "last_name"},
		{"address too short", func(in *RawCheckoutInput) { in.Address = "Rua" }, "address"},
		{"city too short", func(in *RawCheckoutInput) { in.City = "L" }, "city"},
		{"empty postal code", func(in *RawCheckoutInput) { in.PostalCode = "" }, "postal_code"},
		{"unknown country", func(in *RawCheckoutInput) { in.Country = "Atlantis" }, "country"},
		{"unknown payment method", func(in *RawCheckoutInput) { in.PaymentMethod = "barter" }, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, errs := Validate(input)
			require.Contains(t, errs, tt.field)
		})
	}
}

func TestValidateUnicodeNames(t *testing.T) {
	input := validInput()
	input.FirstName = "José-María"
	input.LastName = "O'Neill"
	input.City = "São Paulo"
	input.Country = "Portugal"

	_, errs := Validate(input)
	assert.Empty(t, errs)
}

func TestCountriesListsSupportedSet(t *testing.T) {
	countries := Countries()
	assert.Contains(t, countries, "Portugal")
	assert.Contains(t, countries, "Belgium")
	assert.Len(t, countries, 9)
}
