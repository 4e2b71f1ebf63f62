package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/service/auth"
)

// EnvJWTSecret is the server's JWT secret variable, read by the token command.
const EnvJWTSecret = "QUIZ_AUTH_JWT_SECRET"

func newTokenCmd() *cobra.Command {
	var (
		subject  string
		secret   string
		lifetime time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the import API",
		Long: `Mint a bearer token signed with the server's JWT secret.

The secret defaults to $QUIZ_AUTH_JWT_SECRET, the variable the server reads.

Example:
  export QUIZ_TOKEN=$(quizctl token --subject ci)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("no JWT secret: set --secret or %s", EnvJWTSecret)
			}
			svc, err := auth.NewJWTService(config.AuthConfig{
				JWTSecret:            secret,
				TokenLifetimeMinutes: int(lifetime.Minutes()),
			})
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(cmd.Context(), subject)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "quizctl", "token subject")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv(EnvJWTSecret), "JWT signing secret")
	cmd.Flags().DurationVar(&lifetime, "lifetime", time.Hour, "token lifetime")
	return cmd
}
