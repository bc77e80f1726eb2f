package main

import (
	"errors"
	"fmt"

	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/internal/tokens"
	"github.com/spf13/cobra"
)

// newTokenCmd mints an HS256 access token for local testing.
func newTokenCmd() *cobra.Command {
	var actor models.Actor
	var role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			actor.Role = models.ParseRole(role)
			tok, err := tokens.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL).GenerateAccessToken(actor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor.ID, "sub", "", "actor id (required)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "user|approver|admin")
	cmd.Flags().StringVar(&actor.Email, "email", "", "optional email claim")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
