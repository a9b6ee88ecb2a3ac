package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/jwt"
)

// newTokenCmd mints a bearer token for calling the functions locally
func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		expiry  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}

			token, err := jwt.NewManager(cfg.Auth.JWTSecret).GenerateToken(subject, role, expiry)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "local-dev", "token subject")
	cmd.Flags().StringVar(&role, "role", "service_role", "role claim")
	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "token lifetime")
	return cmd
}
