package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dimitrije/passop-api/internal/config"
	"github.com/dimitrije/passop-api/internal/database"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	email    string
	password string
)

var rootCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a credentials account in the passop database",
	Long: `Create a credentials account directly in the database configured by
DATABASE_URL. The password is prompted for when --password is omitted.`,
	SilenceUsage: true,
	RunE:         runCreateUser,
}

func init() {
	rootCmd.Flags().StringVar(&email, "email", "", "account email (required)")
	rootCmd.Flags().StringVar(&password, "password", "", "account password")
	_ = rootCmd.MarkFlagRequired("email")
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UsesMemoryStore() {
		return errors.New("DATABASE_URL is required")
	}

	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pw)
	}

	ctx := cmd.Context()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	user, err := services.NewUserService(db).Register(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", user.Email, user.ID)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
