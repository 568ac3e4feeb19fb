package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/guard"
	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
	"github.com/jrsteele09/go-blog-admin/internal/utils"
	"github.com/jrsteele09/go-blog-admin/session"
)

func (a *App) adminsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage admin accounts (super-admin only)",
	}
	cmd.AddCommand(
		a.adminsListCommand(),
		a.adminsCreateCommand(),
		a.adminsToggleCommand(),
	)
	return cmd
}

func (a *App) adminsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: a.guarded(guard.RouteSuperAdmin, func(cmd *cobra.Command, _ []string) error {
			list, err := a.api.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(list)
			}
			if len(list) == 0 {
				a.mutedf("No admins found.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, ad := range list {
				role := "Admin"
				if ad.SuperAdmin {
					role = "Super admin"
				}
				created := ""
				if ad.CreatedAt != nil {
					created = utils.FormatDate(ad.CreatedAt.Format(time.RFC3339))
				}
				rows = append(rows, []string{ad.ID, ad.Name, ad.Email, role, utils.Capitalize(string(ad.Status)), created})
			}
			return a.printTable([]string{"ID", "NAME", "EMAIL", "ROLE", "STATUS", "CREATED"}, rows)
		}),
	}
}

func (a *App) adminsCreateCommand() *cobra.Command {
	var in admins.NewAdmin
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: a.guarded(guard.RouteSuperAdmin, func(cmd *cobra.Command, _ []string) error {
			if err := session.ValidateStruct(in); err != nil {
				return err
			}
			if err := admins.ValidatePasswordStrength(in.Password); err != nil {
				return &apperrors.ValidationError{Message: err.Error()}
			}
			created, err := a.api.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				if created == nil {
					return a.printJSON(map[string]string{"email": in.Email})
				}
				return a.printJSON(created)
			}
			a.successf("Created admin %s.", in.Email)
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Email, "email", "", "Email address")
	flags.StringVar(&in.Username, "username", "", "Display name")
	flags.StringVar(&in.Password, "password", "", "Initial password")
	return cmd
}

func (a *App) adminsToggleCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(guard.RouteSuperAdmin, func(cmd *cobra.Command, args []string) error {
			next := admins.Status(status)
			if next == "" {
				current, err := a.findAdmin(cmd, args[0])
				if err != nil {
					return err
				}
				next = current.Status.Toggle()
			}
			updated, err := a.api.ToggleAdminStatus(cmd.Context(), args[0], next)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(updated)
			}
			a.successf("Admin %s is now %s.", updated.Email, updated.Status)
			return nil
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "Set active or inactive instead of flipping the current status")
	return cmd
}

func (a *App) findAdmin(cmd *cobra.Command, id string) (*admins.Admin, error) {
	list, err := a.api.ListAdmins(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, errors.Wrapf(apperrors.ErrNotFound, "admin %s", id)
}
