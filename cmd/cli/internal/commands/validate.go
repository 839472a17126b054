package commands

import (
	"fmt"
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// FieldError is a form validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every failed rule of a form.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type rule struct {
	ok  bool
	err FieldError
}

func check(rules ...rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if !r.ok {
			errs = append(errs, r.err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func required(field, value, message string) rule {
	return rule{ok: strings.TrimSpace(value) != "", err: FieldError{field, message}}
}

func validEmail(field, value string) rule {
	addr, err := mail.ParseAddress(value)
	ok := err == nil && addr.Address == value && strings.Contains(value[strings.LastIndex(value, "@")+1:], ".")
	return rule{ok: ok, err: FieldError{field, "Enter a valid email"}}
}

func minLength(field, value string, n int) rule {
	return rule{ok: len(value) >= n, err: FieldError{field, fmt.Sprintf("Password must be at least %d characters", n)}}
}

func matches(field, value, other, message string) rule {
	return rule{ok: value == other, err: FieldError{field, message}}
}

func differs(field, value, other, message string) rule {
	return rule{ok: value != other, err: FieldError{field, message}}
}

func validateRegistration(name, email, password, confirm string) error {
	return check(
		required("name", name, "Name is required"),
		validEmail("email", email),
		minLength("password", password, minPasswordLength),
		matches("confirmPassword", confirm, password, "Passwords must match"),
	)
}

func validatePasswordChange(current, next, confirm string) error {
	return check(
		required("currentPassword", current, "Current password is required"),
		minLength("newPassword", next, minPasswordLength),
		differs("newPassword", next, current, "New password must be different from current password"),
		matches("confirmPassword", confirm, next, "Passwords must match"),
	)
}
