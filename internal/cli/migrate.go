package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"merchant-onboarding/internal/config"
	"merchant-onboarding/internal/migration"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cobra.Command {
	var dbConnStr string

	cmd := &cobra.Command{
		Use:   "migrate [up|down|version]",
		Short: "Apply or roll back the database schema",
		Long: `Apply the embedded SQL migrations to PostgreSQL.

Examples:
  # Apply every pending migration
  onboarding migrate up

  # Roll everything back
  onboarding migrate down --db postgres://localhost:5432/onboarding?sslmode=disable`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			if dbConnStr == "" {
				dbConnStr = config.GetConnectionString()
			}
			return runMigrate(cmd, dbConnStr, direction)
		},
	}

	cmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides DB_CONN_STRING)")
	return cmd
}

func runMigrate(cmd *cobra.Command, dsn, direction string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🗄️  Database: %s\n", maskConnectionString(dsn))

	switch direction {
	case "up":
		return migration.Up(dsn)
	case "down":
		return migration.Down(dsn)
	case "version":
		version, dirty, err := migration.Version(dsn)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Schema version: %d (dirty: %t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown direction %q: use up, down or version", direction)
	}
}
