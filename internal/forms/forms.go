// Package forms declares the web form types and their field-level validation
// rules. Each form validates before any persistence call; a non-empty Errors
// map means the form must be re-presented with inline messages.
package forms

import (
	"strings"

	"cafedex/internal/validation"
)

// Errors maps field name to the validation message for that field.
type Errors map[string]string

// Add records a message for a field, keeping the first error per field.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Valid reports whether no field failed validation.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// SignupForm carries the registration fields.
type SignupForm struct {
	Username    string `form:"username"`
	FirstName   string `form:"first_name"`
	LastName    string `form:"last_name"`
	Description string `form:"description"`
	Email       string `form:"email"`
	Password    string `form:"password"`
	ImageURL    string `form:"image_url"`
}

// Validate applies the signup field rules.
func (f *SignupForm) Validate() Errors {
	errs := Errors{}
	requireField(errs, "username", f.Username)
	requireField(errs, "first_name", f.FirstName)
	requireField(errs, "last_name", f.LastName)
	requireField(errs, "description", f.Description)

	requireField(errs, "email", f.Email)
	if f.Email != "" {
		if err := validation.ValidateEmail(f.Email); err != nil {
			errs.Add("email", err.Error())
		}
	}

	requireField(errs, "password", f.Password)
	if f.Password != "" {
		if err := validation.ValidatePassword(f.Password); err != nil {
			errs.Add("password", err.Error())
		}
	}

	if err := validation.ValidateURL(f.ImageURL); err != nil {
		errs.Add("image_url", err.Error())
	}
	return errs
}

// LoginForm carries the login fields.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Validate applies the login field rules.
func (f *LoginForm) Validate() Errors {
	errs := Errors{}
	requireField(errs, "username", f.Username)
	requireField(errs, "password", f.Password)
	return errs
}

// ProfileEditForm carries the profile edit fields.
type ProfileEditForm struct {
	FirstName   string `form:"first_name"`
	LastName    string `form:"last_name"`
	Description string `form:"description"`
	Email       string `form:"email"`
	ImageURL    string `form:"image_url"`
}

// Validate applies the profile edit field rules.
func (f *ProfileEditForm) Validate() Errors {
	errs := Errors{}
	requireField(errs, "first_name", f.FirstName)
	requireField(errs, "last_name", f.LastName)
	requireField(errs, "description", f.Description)

	requireField(errs, "email", f.Email)
	if f.Email != "" {
		if err := validation.ValidateEmail(f.Email); err != nil {
			errs.Add("email", err.Error())
		}
	}

	if err := validation.ValidateURL(f.ImageURL); err != nil {
		errs.Add("image_url", err.Error())
	}
	return errs
}

// CafeForm carries the cafe add/edit fields. The city vocabulary is loaded
// from the cities table at request time, never hard-coded.
type CafeForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	URL         string `form:"url"`
	Address     string `form:"address"`
	CityCode    string `form:"city_code"`
	ImageURL    string `form:"image_url"`
}

// Validate applies the cafe field rules against the known city codes.
func (f *CafeForm) Validate(cityCodes []string) Errors {
	errs := Errors{}
	requireField(errs, "name", f.Name)
	requireField(errs, "address", f.Address)

	if err := validation.ValidateURL(f.URL); err != nil {
		errs.Add("url", err.Error())
	}
	if err := validation.ValidateURL(f.ImageURL); err != nil {
		errs.Add("image_url", err.Error())
	}

	requireField(errs, "city_code", f.CityCode)
	if f.CityCode != "" && !contains(cityCodes, f.CityCode) {
		errs.Add("city_code", "Not a valid choice")
	}
	return errs
}

func requireField(errs Errors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "This field is required.")
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
