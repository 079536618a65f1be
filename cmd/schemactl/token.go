package main

import (
	"fmt"

	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/infra/auth"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newTokenCmd() *cobra.Command {
	var (
		subject      string
		capabilities []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}

			var tokenSvc service.TokenService
			stop, err := startApp(cmd.Context(), fx.Provide(auth.NewJWTService), &tokenSvc)
			if err != nil {
				return err
			}
			defer stop()

			token, err := tokenSvc.GenerateToken(subject, capabilities)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "actor id carried by the token")
	cmd.Flags().StringSliceVar(&capabilities, "cap", []string{constants.CapabilityManage}, "capabilities granted by the token")

	return cmd
}
