package cli

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-blog-admin/guard"
)

// RootCommand builds the command tree. The shell builds a fresh tree per line so flag
// values never leak from one command into the next.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "blogadmin",
		Short: "Administer the blog from the command line",
		Long: `blogadmin signs in to the blog admin API and manages posts and admin accounts.

A session started with --remember survives between invocations. Without it the
session lasts until the command (or the interactive shell) exits.

Environment Variables:
  BLOGADMIN_API_URL      Admin API URL (default: http://localhost:5000)
  BLOGADMIN_DATA_FOLDER  Where the remembered session is kept (default: ~/.blogadmin)
  BLOGADMIN_LOG_LEVEL    debug, info, warn or error (default: warn)`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	if !a.inShell {
		flags.StringVar(&a.apiURL, "api-url", "", "Admin API URL (overrides BLOGADMIN_API_URL)")
		flags.StringVar(&a.configPath, "config", a.configPath, "Path to the config file")
	}
	flags.BoolVar(&a.jsonOutput, "json", a.inShell && a.shellJSON, "Output JSON instead of human-readable text")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.postsCommand(),
		a.adminsCommand(),
	)
	if !a.inShell {
		root.AddCommand(a.shellCommand())
	}
	return root
}

// guarded wraps a command body with the route guard for r.
func (a *App) guarded(r guard.Route, run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireSetup(); err != nil {
			return err
		}
		if err := guard.Check(r, a.manager.State()); err != nil {
			return err
		}
		return run(cmd, args)
	}
}
