package checkout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RawCheckoutInput is the checkout form as submitted by the client.
type RawCheckoutInput struct {
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	PaymentMethod string `json:"payment_method"`
}

// FormData is validated, normalized checkout input.
type FormData struct {
	Email         string
	Phone         string
	FirstName     string
	LastName      string
	Address       string
	City          string
	PostalCode    string
	Country       string
	PaymentMethod string
}

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]*$`)
	namePattern  = regexp.MustCompile(`^[\p{L}][\p{L} '-]*$`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

// postalPatterns defines the required postal code format per supported
// country. The country list doubles as the enumerated set for the country
// field.
var postalPatterns = map[string]*regexp.Regexp{
	"Portugal":       regexp.MustCompile(`^\d{4}-\d{3}$`),
	"Spain":          regexp.MustCompile(`^\d{5}$`),
	"France":         regexp.MustCompile(`^\d{5}$`),
	"Germany":        regexp.MustCompile(`^\d{5}$`),
	"Italy":          regexp.MustCompile(`^\d{5}$`),
	"Belgium":        regexp.MustCompile(`^\d{4}$`),
	"Netherlands":    regexp.MustCompile(`^\d{4}\s?[A-Za-z]{2}$`),
	"United Kingdom": regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]?\s?\d[A-Za-z]{2}$`),
	"United States":  regexp.MustCompile(`^\d{5}(?:-\d{4})?$`),
}

var paymentMethods = map[string]bool{
	"card":   true,
	"paypal": true,
}

// Validate normalizes and validates checkout input. It returns the sanitized
// form data and a map of per-field errors; the data is only meaningful when
// the error map is empty. Normalization is idempotent: re-validating accepted
// output yields the same values.
func Validate(input RawCheckoutInput) (FormData, FieldErrors) {
	data := sanitize(input)
	errs := FieldErrors{}

	if data.Email == "" {
		errs["email"] = "email is required"
	} else if len(data.Email) > 100 {
		errs["email"] = "email must be at most 100 characters"
	} else if !emailPattern.MatchString(data.Email) {
		errs["email"] = "invalid email address"
	}

	if data.Phone == "" {
		errs["phone"] = "phone is required"
	} else if !phonePattern.MatchString(data.Phone) {
		errs["phone"] = "invalid phone number"
	} else if n := len(digitPattern.FindAllString(data.Phone, -1)); n < 7 || n > 15 {
		errs["phone"] = "phone must contain 7 to 15 digits"
	}

	validateName(errs, "first_name", data.FirstName)
	validateName(errs, "last_name", data.LastName)

	if n := utf8.RuneCountInString(data.Address); n < 5 || n > 200 {
		errs["address"] = "address must be 5 to 200 characters"
	}

	if n := utf8.RuneCountInString(data.City); n < 2 || n > 100 {
		errs["city"] = "city must be 2 to 100 characters"
	} else if !namePattern.MatchString(data.City) {
		errs["city"] = "city contains invalid characters"
	}

	pattern, knownCountry := postalPatterns[data.Country]
	if !knownCountry {
		errs["country"] = "unsupported country"
	}

	if data.PostalCode == "" {
		errs["postal_code"] = "postal code is required"
	} else if knownCountry && !pattern.MatchString(data.PostalCode) {
		errs["postal_code"] = "invalid postal code for " + data.Country
	}

	if !paymentMethods[data.PaymentMethod] {
		errs["payment_method"] = "unsupported payment method"
	}

	if len(errs) == 0 {
		return data, nil
	}
	return data, errs
}

func validateName(errs FieldErrors, field, value string) {
	if n := utf8.RuneCountInString(value); n < 2 || n > 50 {
		errs[field] = "must be 2 to 50 characters"
		return
	}
	if !namePattern.MatchString(value) {
		errs[field] = "contains invalid characters"
	}
}

func sanitize(input RawCheckoutInput) FormData {
	return FormData{
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		PostalCode:    strings.TrimSpace(input.PostalCode),
		Country:       strings.TrimSpace(input.Country),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
	}
}

// Countries returns the supported country names.
func Countries() []string {
	names := make([]string, 0, len(postalPatterns))
	for name := range postalPatterns {
		names = append(names, name)
	}
	return names
}
