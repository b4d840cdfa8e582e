package errors

import (
	"errors"
	"strings"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAccessDenied         = errors.New("access denied")
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrAlreadyMember        = errors.New("user already in organisation")
	ErrNameRequired         = errors.New("name is required")
	ErrUserIDRequired       = errors.New("userId is required")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
)

// FieldError scopes a validation failure to a single request field.
type FieldError struct {
	Field   string
	Message string
}

// Validation aggregates field-scoped failures for the 422 envelope.
type Validation struct {
	Fields []FieldError
}

func (v *Validation) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a *Validation if one is present.
func AsValidation(err error) (*Validation, bool) {
	var v *Validation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
