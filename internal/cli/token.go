package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"live-trivia-service/internal/auth"
	"live-trivia-service/internal/config"
	"live-trivia-service/internal/domain"
)

// NewTokenCmd issues development tokens for connecting as a host or viewer.
func NewTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		name    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed connection token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwtSecret not configured")
			}
			r := domain.Role(role)
			if r != domain.RoleHost && r != domain.RoleViewer {
				return fmt.Errorf("role must be %q or %q", domain.RoleHost, domain.RoleViewer)
			}
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).
				Issue(domain.Identity{ID: subject, DisplayName: name, Role: r}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "host or viewer")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
