// Package console ties the session store, guards, and API client into the
// named views the CLI renders.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/watchdesk/console/internal/console/api"
	"github.com/watchdesk/console/internal/console/guard"
	"github.com/watchdesk/console/internal/console/session"
	"github.com/watchdesk/console/types"
)

// View is one named screen of the console with its access rules.
type View struct {
	Name string

	// Public marks anonymous-only views (login, register). All other
	// views require an authenticated session.
	Public bool

	// AllowedRoles is the allow-list for private views. Empty means every
	// authenticated role.
	AllowedRoles []types.Role

	render func(ctx context.Context, client *api.Client, w io.Writer) error
}

var allAuthenticated = []types.Role{
	types.RoleSuperAdmin,
	types.RoleOrgAdmin,
	types.RoleAuthorityUser,
	types.RoleObserver,
}

var registry = map[string]View{
	"login":    {Name: "login", Public: true, render: renderLoginHint},
	"register": {Name: "register", Public: true, render: renderRegisterHint},
	"dashboard": {
		Name:         "dashboard",
		AllowedRoles: allAuthenticated,
		render:       renderDashboard,
	},
	"account": {
		Name:         "account",
		AllowedRoles: allAuthenticated,
		render:       renderAccount,
	},
	"organizations": {
		Name:         "organizations",
		AllowedRoles: []types.Role{types.RoleSuperAdmin},
		render:       renderOrganizations,
	},
	"users": {
		Name:         "users",
		AllowedRoles: []types.Role{types.RoleSuperAdmin, types.RoleOrgAdmin},
		render:       renderUsers,
	},
	"executives": {
		Name:         "executives",
		AllowedRoles: []types.Role{types.RoleSuperAdmin},
		render:       renderExecutives,
	},
	"alerts": {
		Name:         "alerts",
		AllowedRoles: allAuthenticated,
		render:       renderAlerts,
	},
	"events": {
		Name:         "events",
		AllowedRoles: allAuthenticated,
		render:       renderEvents,
	},
	"audit": {
		Name:         "audit",
		AllowedRoles: []types.Role{types.RoleSuperAdmin, types.RoleOrgAdmin},
		render:       renderAudit,
	},
}

// Lookup resolves a view by name.
func Lookup(name string) (View, bool) {
	view, ok := registry[name]
	return view, ok
}

// Names lists all registered views, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// evaluate runs the guard matching the view's kind.
func evaluate(view View, snap session.Snapshot) guard.Decision {
	if view.Public {
		return guard.Public(snap)
	}
	return guard.Private(snap, view.AllowedRoles)
}

// Open initializes the session, guards the named view, follows at most one
// redirect, and renders the result. The denied view never renders; the
// redirect target is what runs.
func Open(ctx context.Context, store *session.Store, client *api.Client, name string, w io.Writer) error {
	view, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown view %q (known: %v)", name, Names())
	}

	store.Initialize(ctx)
	snap := store.Snapshot()

	decision := evaluate(view, snap)
	if decision.Kind == guard.Redirect {
		redirected, ok := Lookup(decision.Target)
		if !ok {
			return fmt.Errorf("redirect to unknown view %q", decision.Target)
		}
		fmt.Fprintf(w, "redirecting to %s\n", redirected.Name)
		view = redirected
		decision = evaluate(view, snap)
	}

	switch decision.Kind {
	case guard.Render:
		return view.render(ctx, client, w)
	case guard.ShowLoading:
		fmt.Fprintln(w, "session is still initializing")
		return nil
	case guard.RenderNothing:
		return errors.New("session could not be verified; log in again")
	default:
		return fmt.Errorf("view %q is not accessible", view.Name)
	}
}

func renderLoginHint(ctx context.Context, client *api.Client, w io.Writer) error {
	fmt.Fprintln(w, "not logged in; run: console login --email <email>")
	return nil
}

func renderRegisterHint(ctx context.Context, client *api.Client, w io.Writer) error {
	fmt.Fprintln(w, "run: console register --email <email> --security-code <code>")
	return nil
}

func renderDashboard(ctx context.Context, client *api.Client, w io.Writer) error {
	user, err := client.Me(ctx)
	if err != nil {
		return err
	}
	alerts, err := client.Alerts(ctx)
	if err != nil {
		return err
	}

	open := 0
	for _, alert := range alerts {
		if alert.Status != types.AlertResolved && alert.Status != types.AlertDismissed {
			open++
		}
	}

	fmt.Fprintf(w, "watchdesk dashboard\n")
	fmt.Fprintf(w, "signed in as %s %s (%s)\n", user.FirstName, user.LastName, user.Role)
	fmt.Fprintf(w, "alerts: %d total, %d open\n", len(alerts), open)
	return nil
}

func renderAccount(ctx context.Context, client *api.Client, w io.Writer) error {
	user, err := client.Me(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", user.ID)
	fmt.Fprintf(tw, "name\t%s %s\n", user.FirstName, user.LastName)
	fmt.Fprintf(tw, "email\t%s\n", user.Email)
	fmt.Fprintf(tw, "role\t%s\n", user.Role)
	if user.OrganizationID != nil {
		fmt.Fprintf(tw, "organization\t%d\n", *user.OrganizationID)
	}
	if user.LastLoginAt != nil {
		fmt.Fprintf(tw, "last login\t%s\n", user.LastLoginAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func renderOrganizations(ctx context.Context, client *api.Client, w io.Writer) error {
	orgs, err := client.Organizations(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tSTATUS")
	for _, org := range orgs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", org.ID, org.Name, org.Domain, org.Status)
	}
	return tw.Flush()
}

func renderUsers(ctx context.Context, client *api.Client, w io.Writer) error {
	users, err := client.Users(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
	for _, user := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%t\n",
			user.ID, user.Email, user.FirstName, user.LastName, user.Role, user.IsActive)
	}
	return tw.Flush()
}

func renderExecutives(ctx context.Context, client *api.Client, w io.Writer) error {
	executives, err := client.Executives(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tORGANIZATION\tACTIVE")
	for _, executive := range executives {
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%t\n",
			executive.ID, executive.Email, executive.FirstName, executive.LastName,
			executive.OrganizationName, executive.IsActive)
	}
	return tw.Flush()
}

func renderAlerts(ctx context.Context, client *api.Client, w io.Writer) error {
	alerts, err := client.Alerts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tSTATUS\tTITLE")
	for _, alert := range alerts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", alert.ID, alert.Severity, alert.Status, alert.Title)
	}
	return tw.Flush()
}

func renderEvents(ctx context.Context, client *api.Client, w io.Writer) error {
	events, err := client.Events(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSOURCE\tTIMESTAMP")
	for _, event := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			event.ID, event.EventType, event.Source,
			event.EventTimestamp.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func renderAudit(ctx context.Context, client *api.Client, w io.Writer) error {
	records, err := client.AuditRecords(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTION\tENTITY\tUSER\tAT")
	for _, record := range records {
		userID := "-"
		if record.UserID != nil {
			userID = fmt.Sprintf("%d", *record.UserID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			record.ID, record.Action, record.Entity, userID,
			record.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
