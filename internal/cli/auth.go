package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-blog-admin/guard"
	"github.com/jrsteele09/go-blog-admin/internal/utils"
	"github.com/jrsteele09/go-blog-admin/session"
	"github.com/jrsteele09/go-blog-admin/store"
)

func (a *App) loginCommand() *cobra.Command {
	var creds session.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		Long: `Sign in with an admin email and password. Missing values are prompted for when
running in a terminal. Use --remember to keep the session for later invocations.`,
		Args: cobra.NoArgs,
		RunE: a.guarded(guard.RoutePublic, func(cmd *cobra.Command, _ []string) error {
			if (creds.Email == "" || creds.Password == "") && a.interactive() {
				if err := loginForm(&creds); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return &silentError{err: err}
					}
					return err
				}
			}
			creds.Email = strings.TrimSpace(creds.Email)
			if err := session.ValidateCredentials(creds); err != nil {
				return err
			}
			if err := a.manager.Login(cmd.Context(), creds); err != nil {
				return err
			}

			s := a.manager.State()
			if a.jsonOutput {
				return a.printJSON(sessionView(s, a.manager))
			}
			name := creds.Email
			if s.CurrentUser != nil {
				name = s.CurrentUser.DisplayName()
			}
			a.successf("Logged in as %s.", name)
			if !creds.RememberMe && !a.inShell {
				a.warnf("This session was not remembered and ends when blogadmin exits. Use --remember or run 'blogadmin shell'.")
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Admin email address")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Admin password")
	cmd.Flags().BoolVarP(&creds.RememberMe, "remember", "r", false, "Keep the session after blogadmin exits")
	return cmd
}

// loginForm prompts for the credentials. Values already given as flags are prefilled.
func loginForm(creds *session.Credentials) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&creds.Email).
				Validate(huh.ValidateNotEmpty()),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(huh.ValidateNotEmpty()),
			huh.NewConfirm().
				Title("Remember me?").
				Value(&creds.RememberMe),
		),
	).WithTheme(huh.ThemeBase()).Run()
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSetup(); err != nil {
				return err
			}
			wasAuthed := a.manager.State().IsAuthenticated
			a.manager.Logout(cmd.Context())
			if a.jsonOutput {
				return a.printJSON(map[string]bool{"loggedOut": wasAuthed})
			}
			if !wasAuthed {
				a.mutedf("No active session.")
				return nil
			}
			a.successf("Logged out.")
			return nil
		},
	}
}

type sessionJSON struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	SuperAdmin bool   `json:"superAdmin"`
	Remembered bool   `json:"remembered"`
	ExpiresAt  string `json:"tokenExpiresAt,omitempty"`
}

func sessionView(s session.State, m *session.Manager) sessionJSON {
	v := sessionJSON{
		SuperAdmin: s.IsSuperAdmin,
		Remembered: s.Scope == store.ScopeDurable,
	}
	if s.CurrentUser != nil {
		v.ID = s.CurrentUser.ID
		v.Name = s.CurrentUser.Name
		v.Email = s.CurrentUser.Email
	}
	if exp, ok := m.AccessTokenExpiry(); ok {
		v.ExpiresAt = exp.UTC().Format(time.RFC3339)
	}
	return v
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: a.guarded(guard.RouteProtected, func(_ *cobra.Command, _ []string) error {
			s := a.manager.State()
			v := sessionView(s, a.manager)
			if a.jsonOutput {
				return a.printJSON(v)
			}

			role := "Admin"
			if s.IsSuperAdmin {
				role = "Super admin"
			}
			fields := [][2]string{
				{"Name", v.Name},
				{"Email", v.Email},
				{"Role", role},
				{"Session", utils.Capitalize(s.Scope.String())},
			}
			if s.CurrentUser != nil && s.CurrentUser.CreatedAt != "" {
				fields = append(fields, [2]string{"Member since", utils.FormatDate(s.CurrentUser.CreatedAt)})
			}
			if ttl, ok := a.manager.TokenTTL(); ok {
				fields = append(fields, [2]string{"Token expires in", ttl.Round(time.Second).String()})
			}
			if s.CurrentUser == nil {
				a.warnf("Profile could not be loaded.")
			}
			return a.printFields(fields)
		}),
	}
}
