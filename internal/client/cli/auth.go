package cli

import (
	"context"

	"github.com/dmitrijs2005/chirper/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getPassword = GetPassword

// Login prompts for an email or username and a password and signs in.
// The router notices the new session and mounts the main screens.
//
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	_, err = a.authService.Login(ctx, identifier, password)
	return err
}

// Signup prompts for an email, a username and a password and creates the
// account. On success the new identity is signed in.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	handle, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Choose a password (at least 6 characters)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	_, err = a.authService.Signup(ctx, email, password, handle)
	return err
}

// Logout signs out. The stored session is forgotten and the router goes
// back to the sign-in screens.
func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.authService.SignOut(ctx)
}
