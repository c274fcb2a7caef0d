package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"quizdesk/internal/app"
	"quizdesk/internal/config"
	"quizdesk/internal/infra/postgres"
	"quizdesk/internal/infra/postgres/migrations"
)

// NewCreateAdminCmd provisions an administrator account in Postgres.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("QUIZDESK_ADMIN_PASSWORD")
			}
			if password == "" {
				return errors.New("admin password required: pass --password or set QUIZDESK_ADMIN_PASSWORD")
			}
			return createAdmin(cmd.Context(), *configPath, app.Credentials{Username: username, Password: password}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "administrator username")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (default $QUIZDESK_ADMIN_PASSWORD)")
	return cmd
}

func createAdmin(ctx context.Context, configPath string, creds app.Credentials, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// An in-memory store would discard the account when this command exits.
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}
	if _, err := migrations.Apply(ctx, cfg.Postgres.URL); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	accounts, err := app.NewAccountService(postgres.NewStore(pool))
	if err != nil {
		return err
	}
	user, err := accounts.CreateAdmin(ctx, creds)
	if err != nil {
		return fmt.Errorf("create admin %q: %w", creds.Username, err)
	}
	fmt.Fprintf(out, "created admin %s (id %d)\n", user.Username, user.ID)
	return nil
}
