package users

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/natebrady-cyera/deep-thought/internal/config"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

var (
	cfg    *config.Config
	logger = zerolog.Nop()
)

// Configure hands the loaded configuration and logger to the user commands.
// The root command calls it from its pre-run hook.
func Configure(c *config.Config, l zerolog.Logger) {
	cfg = c
	logger = l
}

// UsersCmd is the parent command for user management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users and roles",
	Long: `Commands for managing users directly against the database, for example to
seed the first administrator before anyone has logged in.`,
}

func printUsers(w io.Writer, users []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Role, u.IsActive)
	}
	return tw.Flush()
}

func init() {
	UsersCmd.AddCommand(listCmd)
	UsersCmd.AddCommand(setRoleCmd)
	UsersCmd.AddCommand(bootstrapCmd)
}
