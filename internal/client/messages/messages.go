// Package messages turns errors into the text shown to the user.
package messages

import (
	"errors"

	"github.com/dmitrijs2005/chirper/internal/common"
)

var known = []struct {
	err  error
	text string
}{
	{common.ErrInvalidEmail, "The email address is badly formatted."},
	{common.ErrMalformedEmail, "The email address is badly formatted."},
	{common.ErrIdentityNotFound, "No account found with this email/username."},
	{common.ErrWrongCredential, "Incorrect password. Please try again."},
	{common.ErrEmailInUse, "This email is already in use."},
	{common.ErrWeakPassword, "Password should be at least 6 characters."},
	{common.ErrPasswordTooShort, "Password should be at least 6 characters."},
	{common.ErrHandleNotFound, "No account found with this username."},
	{common.ErrHandleTaken, "Username is already taken. Please choose another."},
	{common.ErrHandleTooShort, "Username should be at least 3 characters."},
	{common.ErrEmptyIdentifier, "Please enter your email or username."},
	{common.ErrEmptyBody, "Tweet content cannot be empty."},
	{common.ErrBodyTooLong, "Tweet content cannot be longer than 160 characters."},
	{common.ErrEmptySearch, "Type part of a username to search."},
	{common.ErrNotOwner, "You can only change your own tweets."},
	{common.ErrPermissionDenied, "You do not have permission to do that."},
	{common.ErrUnauthenticated, "Please sign in first."},
	{common.ErrTokenExpired, "Your session has expired. Please sign in again."},
	{common.ErrInvalidToken, "Your session has expired. Please sign in again."},
	{common.ErrNotFound, "It no longer exists."},
	{common.ErrUnavailable, "Cannot reach the server. Check your connection and try again."},
}

// For returns the user-facing message for err, or err's own text when no
// message is defined. A nil error gives "".
func For(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range known {
		if errors.Is(err, k.err) {
			return k.text
		}
	}
	return err.Error()
}
