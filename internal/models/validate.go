package models

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/chirper/internal/common"
)

const (
	MaxBodyLength     = 160
	MinPasswordLength = 6
	MinHandleLength   = 3
)

var emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)

// IsEmailShaped reports whether s looks like an email address. It is the
// loose check used to tell emails and handles apart at login.
func IsEmailShaped(s string) bool {
	return emailShape.MatchString(s)
}

// NormalizeBody trims body and checks it is a valid post text.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", common.ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", common.ErrBodyTooLong
	}
	return body, nil
}

func ValidateEmail(email string) error {
	if !IsEmailShaped(strings.TrimSpace(email)) {
		return common.ErrMalformedEmail
	}
	return nil
}

func ValidatePassword(password []byte) error {
	if utf8.RuneCount(password) < MinPasswordLength {
		return common.ErrPasswordTooShort
	}
	return nil
}

// NormalizeHandle trims handle and checks its length.
func NormalizeHandle(handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if utf8.RuneCountInString(handle) < MinHandleLength {
		return "", common.ErrHandleTooShort
	}
	return handle, nil
}
