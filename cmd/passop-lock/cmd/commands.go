package cmd

import (
	"errors"
	"fmt"

	"github.com/dimitrije/passop-api/internal/pinlock"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a PIN is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pinlock.Session) error {
			fmt.Fprintln(cmd.OutOrStdout(), s.State())
			return nil
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock with the PIN, choosing one on first use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pinlock.Session) error {
			if s.State() == pinlock.Unset {
				pin, err := promptPin(cmd, "Choose a 4-digit PIN: ")
				if err != nil {
					return err
				}
				if err := s.SetPin(pin); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "PIN set, unlocked")
				return nil
			}

			pin, err := promptPin(cmd, "PIN: ")
			if err != nil {
				return err
			}
			if err := s.Attempt(pin); errors.Is(err, pinlock.ErrIncorrectPin) {
				return errors.New("incorrect PIN, still locked")
			} else if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unlocked")
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(func(s *pinlock.Session) error {
			if err := s.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN removed")
			return nil
		})
	},
}
