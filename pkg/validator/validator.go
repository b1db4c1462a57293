package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ValidateRegister(username, password string, email *string) ValidationErrors {
	errs := make(ValidationErrors)

	// Username
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 2 {
		errs.Add("username", "Username must be at least 2 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _ and -")
	}

	// Email is optional but must parse when present
	if email != nil && strings.TrimSpace(*email) != "" {
		if _, err := mail.ParseAddress(*email); err != nil {
			errs.Add("email", "Invalid email address")
		}
	}

	// Password
	if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	} else if len(password) > 128 {
		errs.Add("password", "Password is too long")
	}

	return errs
}

func ValidateLogin(account, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(account) == "" {
		errs.Add("account", "Account is required")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateChatMessage(message string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(message) == "" {
		errs.Add("message", "Message is required")
	}

	return errs
}

func ValidateTitle(title string) ValidationErrors {
	errs := make(ValidationErrors)

	title = strings.TrimSpace(title)
	if title == "" {
		errs.Add("title", "Title is required")
	} else if len(title) > 200 {
		errs.Add("title", "Title is too long")
	}

	return errs
}
