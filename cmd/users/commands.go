package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/natebrady-cyera/deep-thought/cmd/cmdutil"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

var (
	emailFlag    string
	fullNameFlag string
	roleFlag     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := cmdutil.NewIdentityBundle(cfg, logger)
		if err != nil {
			return err
		}
		defer bundle.Close()

		users, err := bundle.Users.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return printUsers(cmd.OutOrStdout(), users)
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change a user's role",
	Example: `  deepthought users set-role --email manager@example.com --role SALES_MANAGER`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		role := models.Role(roleFlag)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q: valid roles are %s, %s, %s", roleFlag, models.RoleAdmin, models.RoleSalesManager, models.RoleUser)
		}

		bundle, err := cmdutil.NewIdentityBundle(cfg, logger)
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := cmd.Context()
		user, err := bundle.Users.GetByEmail(ctx, models.NormalizeEmail(emailFlag))
		if err != nil {
			return fmt.Errorf("failed to find user %q: %w", emailFlag, err)
		}
		user, err = bundle.Service.AssignRole(ctx, user.ID, role)
		if err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
		return nil
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create a user ahead of their first login",
	Long: `Creates the user for --email if it does not exist, applying the same rules as
login: the configured bootstrap admin email becomes ADMIN. Pass --role to
assign a different role afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		bundle, err := cmdutil.NewIdentityBundle(cfg, logger)
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := cmd.Context()
		user, err := bundle.Service.BootstrapOrGet(ctx, emailFlag, fullNameFlag)
		if err != nil {
			return fmt.Errorf("failed to bootstrap user: %w", err)
		}
		if roleFlag != "" {
			user, err = bundle.Service.AssignRole(ctx, user.ID, models.Role(roleFlag))
			if err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}
		}

		return printUsers(cmd.OutOrStdout(), []models.User{*user})
	},
}

func init() {
	setRoleCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	setRoleCmd.Flags().StringVar(&roleFlag, "role", "", "Role to assign: ADMIN, SALES_MANAGER or USER")

	bootstrapCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	bootstrapCmd.Flags().StringVar(&fullNameFlag, "name", "", "Full name of the user")
	bootstrapCmd.Flags().StringVar(&roleFlag, "role", "", "Optional role to assign after creation")
}
