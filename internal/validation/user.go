package validation

import (
	"regexp"
	"unicode"
)

var (
	fullNameRe      = regexp.MustCompile(`^[A-Za-z '\-.]{2,100}$`)
	idNumberRe      = regexp.MustCompile(`^\d{10,20}$`)
	accountNumberRe = regexp.MustCompile(`^\d{6,20}$`)
	usernameRe      = regexp.MustCompile(`^[A-Za-z0-9]{4,64}$`)
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer input.
	maxPasswordBytes = 72
)

type RegistrationInput struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	Password      string
}

func ValidateRegistration(in RegistrationInput) error {
	v := New()
	v.Matches("fullName", in.FullName, fullNameRe, "Invalid name")
	v.Matches("idNumber", in.IDNumber, idNumberRe, "Invalid ID number")
	v.Matches("accountNumber", in.AccountNumber, accountNumberRe, "Invalid account number")
	v.Matches("username", in.Username, usernameRe, "must be 4-64 letters or digits")
	v.Password("password", in.Password)
	return v.Err()
}

// ValidateEmployee checks the fields an operator supplies when provisioning
// staff; identity numbers are generated, not supplied.
func ValidateEmployee(fullName, username, password string) error {
	v := New()
	v.Matches("fullName", fullName, fullNameRe, "Invalid name")
	v.Matches("username", username, usernameRe, "must be 4-64 letters or digits")
	v.Password("password", password)
	return v.Err()
}

// Password requires lower, upper, digit and a non-alphanumeric character.
func (v *Validator) Password(field, password string) {
	if len(password) < minPasswordLength {
		v.AddError(field, "must be at least 8 characters long")
		return
	}
	if len(password) > maxPasswordBytes {
		v.AddError(field, "must be at most 72 bytes")
		return
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	v.Check(hasLower, field, "must contain at least one lowercase letter")
	v.Check(hasUpper, field, "must contain at least one uppercase letter")
	v.Check(hasDigit, field, "must contain at least one number")
	v.Check(hasSpecial, field, "must contain at least one special character")
}
