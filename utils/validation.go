package utils

import (
	"regexp"

	"booking-service/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var nonDigits = regexp.MustCompile(`\D`)

// ValidateGuestDetails checks the contact fields collected at the guest
// details step. The phone must carry at least 10 digits including the dial
// code (dial code + 8 digit minimum subscriber number).
func ValidateGuestDetails(guest domain.GuestDetails) error {
	verr := domain.NewValidationError()

	if err := validate.Struct(guest); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range fieldErrors {
				switch fieldError.Field() {
				case "Name":
					verr.Add("name", "provide the guest name")
				case "Email":
					verr.Add("email", "provide a valid email address")
				case "DialCode":
					verr.Add("dial_code", "provide a dial code")
				case "Phone":
					verr.Add("phone", "provide a phone number")
				}
			}
		} else {
			verr.Add("guest", "invalid guest details")
		}
	}

	if CountDigits(guest.FullPhone()) < 10 {
		verr.Add("phone", "provide a phone number with at least 10 digits")
	}

	if verr.HasErrors() {
		return verr
	}

	return nil
}

func CountDigits(s string) int {
	return len(nonDigits.ReplaceAllString(s, ""))
}
