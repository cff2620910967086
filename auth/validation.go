package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mixcore/sdk-go/common"
)

const (
	minLoginPasswordLen    = 6
	minRegisterPasswordLen = 8
	maxEmailLen            = 254
	maxEmailLocalLen       = 64
	minUsernameLen         = 3
	maxUsernameLen         = 50
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Usernames must start with a letter or digit; dash and underscore are
	// allowed afterwards.
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

// ValidateLoginCredentials checks the identifier and password before any
// network call. An identifier containing '@' is validated as an email,
// anything else as a username.
func ValidateLoginCredentials(identifier, password string) error {
	if identifier == "" {
		return common.NewValidationError("identifier", "is required")
	}
	if strings.Contains(identifier, "@") {
		if err := validateEmail(identifier); err != nil {
			return err
		}
	} else if err := validateUsername(identifier); err != nil {
		return err
	}
	if len(password) < minLoginPasswordLen {
		return common.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

// ValidateRegistration enforces the stricter registration rules: a valid
// username and email, and a password of at least 8 characters containing an
// uppercase letter, a digit and a special character.
func ValidateRegistration(req RegisterRequest) error {
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return validateRegisterPassword(req.Password)
}

func validateEmail(email string) error {
	if email == "" {
		return common.NewValidationError("email", "is required")
	}
	if len(email) > maxEmailLen {
		return common.NewValidationError("email", "must be at most 254 characters")
	}
	local, _, found := strings.Cut(email, "@")
	if !found || len(local) > maxEmailLocalLen {
		return common.NewValidationError("email", "invalid format")
	}
	if !emailRegex.MatchString(email) {
		return common.NewValidationError("email", "invalid format")
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return common.NewValidationError("username", "must be between 3 and 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return common.NewValidationError("username", "may only contain letters, digits, '-' and '_', and must start with a letter or digit")
	}
	return nil
}

func validateRegisterPassword(password string) error {
	if len(password) < minRegisterPasswordLen {
		return common.NewValidationError("password", "must be at least 8 characters")
	}
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return common.NewValidationError("password", "must contain an uppercase letter")
	case !hasDigit:
		return common.NewValidationError("password", "must contain a digit")
	case !hasSpecial:
		return common.NewValidationError("password", "must contain a special character")
	}
	return nil
}
