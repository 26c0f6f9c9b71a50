package cli

import (
	"context"
	"os"

	"github.com/mlapshin/authkeep/internal/client/models"
	"github.com/mlapshin/authkeep/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and tries to authenticate. The outcome is
// reported through the session manager's notification sink; the password
// bytes are wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.session.Login(ctx, email, string(password))
	return nil
}

// Signup prompts for the new account's details and registers it. An empty
// role answer requests a regular user account; only "admin" requests the
// admin role.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleAnswer, err := getSimpleText(a.reader, "Role (user/admin, empty for user)", os.Stdout)
	if err != nil {
		return err
	}

	a.session.Signup(ctx, name, email, string(password), models.ParseRole(roleAnswer))
	return nil
}

// Logout clears the current session.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	return nil
}
