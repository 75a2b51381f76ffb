package validator

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail checks format only. Leads arrive from arbitrary mailboxes,
// so there is no domain allowlist or MX lookup here.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || !strings.Contains(parts[1], ".") {
		return errors.New("invalid email domain")
	}

	return nil
}
