package cli

import (
	"context"
	"fmt"
)

// Whoami prints the current session identity, fetching the profile when it
// has not been loaded yet.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	user := a.client.Auth.CurrentUser()
	if user == nil {
		fetched, err := a.client.Auth.GetProfile(ctx)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return err
		}
		user = fetched
	}

	fmt.Fprintf(a.out, "id:       %s\n", user.ID)
	fmt.Fprintf(a.out, "username: %s\n", user.Username)
	fmt.Fprintf(a.out, "email:    %s\n", user.Email)
	if user.Role != "" {
		fmt.Fprintf(a.out, "role:     %s\n", user.Role)
	}
	return nil
}

// Logout ends the session.
func (a *App) Logout(ctx context.Context) error {
	a.client.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
