package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSignup() SignupForm {
	return SignupForm{
		Username:    "alice",
		FirstName:   "Alice",
		LastName:    "Nguyen",
		Description: "espresso enjoyer",
		Email:       "alice@example.com",
		Password:    "secret1",
	}
}

func TestSignupFormValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := validSignup()
		assert.True(t, f.Validate().Valid())
	})

	t.Run("all fields required", func(t *testing.T) {
		f := SignupForm{}
		errs := f.Validate()
		for _, field := range []string{"username", "first_name", "last_name", "description", "email", "password"} {
			assert.Contains(t, errs, field)
		}
	})

	t.Run("bad email", func(t *testing.T) {
		f := validSignup()
		f.Email = "not-an-email"
		assert.Contains(t, f.Validate(), "email")
	})

	t.Run("short password", func(t *testing.T) {
		f := validSignup()
		f.Password = "tiny"
		assert.Contains(t, f.Validate(), "password")
	})

	t.Run("image url optional but checked", func(t *testing.T) {
		f := validSignup()
		f.ImageURL = "not a url"
		assert.Contains(t, f.Validate(), "image_url")

		f.ImageURL = "https://example.com/me.png"
		assert.True(t, f.Validate().Valid())
	})
}

func TestLoginFormValidate(t *testing.T) {
	assert.True(t, (&LoginForm{Username: "alice", Password: "secret1"}).Validate().Valid())

	errs := (&LoginForm{}).Validate()
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "password")
}

func TestProfileEditFormValidate(t *testing.T) {
	valid := ProfileEditForm{
		FirstName:   "Alice",
		LastName:    "Nguyen",
		Description: "still an espresso enjoyer",
		Email:       "alice@example.com",
	}
	assert.True(t, valid.Validate().Valid())

	missing := ProfileEditForm{Email: "alice@example.com"}
	errs := missing.Validate()
	assert.Contains(t, errs, "first_name")
	assert.Contains(t, errs, "last_name")
	assert.Contains(t, errs, "description")
}

func TestCafeFormValidate(t *testing.T) {
	cityCodes := []string{"sf", "berk", "oak"}

	t.Run("valid", func(t *testing.T) {
		f := CafeForm{
			Name:     "Ritual Roasters",
			Address:  "1026 Valencia St",
			CityCode: "sf",
			URL:      "https://ritualroasters.com",
		}
		assert.True(t, f.Validate(cityCodes).Valid())
	})

	t.Run("name and address required", func(t *testing.T) {
		f := CafeForm{CityCode: "sf"}
		errs := f.Validate(cityCodes)
		assert.Contains(t, errs, "name")
		assert.Contains(t, errs, "address")
	})

	t.Run("unknown city code", func(t *testing.T) {
		f := CafeForm{Name: "Ghost Cafe", Address: "1 Nowhere Ln", CityCode: "atlantis"}
		errs := f.Validate(cityCodes)
		assert.Contains(t, errs, "city_code")
	})

	t.Run("bad optional urls", func(t *testing.T) {
		f := CafeForm{Name: "Ritual", Address: "1026 Valencia St", CityCode: "sf", URL: "nope", ImageURL: "also nope"}
		errs := f.Validate(cityCodes)
		assert.Contains(t, errs, "url")
		assert.Contains(t, errs, "image_url")
	})
}
