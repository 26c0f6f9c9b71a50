package cli

import (
	"context"
	"fmt"
)

// Whoami prints the current session: user fields and the admin marker, or a
// note that no one is logged in.
func (a *App) Whoami(ctx context.Context) error {
	u, ok := a.session.CurrentUser()
	if !ok {
		printlnFn("Not logged in")
		return nil
	}

	printlnFn(fmt.Sprintf("%s <%s> id=%s role=%s", u.Name, u.Email, u.ID, u.Role))
	if a.session.IsAdmin() {
		printlnFn("You have admin privileges")
	}
	return nil
}

// History prints the login events recorded on this device, oldest first.
func (a *App) History(ctx context.Context) error {
	recs, err := a.session.AuditLog(ctx)
	if err != nil {
		printlnFn("Could not read login history:", err.Error())
		return err
	}
	if len(recs) == 0 {
		printlnFn("No logins recorded yet")
		return nil
	}

	for _, rec := range recs {
		printlnFn(fmt.Sprintf("%s  %s (%s)", rec.At.Format("2006-01-02 15:04:05"), rec.Email, rec.UserID))
	}
	return nil
}
