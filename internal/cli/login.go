package cli

import (
	"context"
	"fmt"
)

// Login prompts for credentials and establishes a session.
func (a *App) Login(ctx context.Context) error {
	identifier, err := GetSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	user, err := a.client.Login(ctx, identifier, password, true)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %s\n", err.Error())
		return err
	}

	if user != nil && user.Username != "" {
		fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
	} else {
		fmt.Fprintln(a.out, "Logged in")
	}
	return nil
}
