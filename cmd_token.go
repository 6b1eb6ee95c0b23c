package main

import (
	"fmt"

	"orderdesk/internal/services"

	"github.com/spf13/cobra"
)

// orderdesk token: prints a bearer token signed with AUTH_SECRET, for use as
// API_TOKEN.
func (c *cli) tokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the mutating endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.load()
			if err != nil {
				return err
			}
			token, err := services.NewTokenService(cfg.AuthSecret, cfg.TokenTTL).IssueToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "orderdesk-cli", "token subject")
	return cmd
}
