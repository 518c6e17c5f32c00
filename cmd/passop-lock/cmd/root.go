package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimitrije/passop-api/internal/pinlock"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dbPath string

// readPin is swapped out in tests.
var readPin = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var rootCmd = &cobra.Command{
	Use:   "passop-lock",
	Short: "Local PIN lock for a passop session",
	Long: `passop-lock guards re-entry into an already signed-in passop session
with a 4-digit PIN. The PIN is kept as a bcrypt hash in a local file and is
never sent to the server.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the local lock file")
	rootCmd.AddCommand(statusCmd, unlockCmd, resetCmd)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".passop", "lock.db")
	}
	return filepath.Join(home, ".passop", "lock.db")
}

// withSession opens the lock file for the duration of fn.
func withSession(fn func(*pinlock.Session) error) error {
	store, err := pinlock.OpenBoltStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := pinlock.Open(store)
	if err != nil {
		return err
	}
	return fn(session)
}

func promptPin(cmd *cobra.Command, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pin, err := readPin()
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf("failed to read pin: %w", err)
	}
	return pin, nil
}
