package validation

import (
	"regexp"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

// Validator collects field failures in the order the checks run.
type Validator struct {
	errs []domain.FieldError
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) Valid() bool {
	return len(v.errs) == 0
}

func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, domain.FieldError{Field: field, Message: message})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) Matches(field, value string, re *regexp.Regexp, message string) {
	v.Check(re.MatchString(value), field, message)
}

func (v *Validator) Errors() []domain.FieldError {
	return v.errs
}

// Err returns nil when every check passed.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &domain.ValidationError{Fields: v.errs}
}
