package cli

import (
	"context"
	"fmt"

	"github.com/mixcore/sdk-go/auth"
)

// Register prompts for account details and creates a new account. The user
// still has to log in afterwards.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		fmt.Fprintln(a.out, "Passwords do not match")
		return fmt.Errorf("passwords do not match")
	}

	_, err = a.client.Auth.Register(ctx, auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		fmt.Fprintf(a.out, "Registration unsuccessful: %s\n", err.Error())
		return err
	}

	fmt.Fprintln(a.out, "Account created, you can now log in")
	return nil
}
