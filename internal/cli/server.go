package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"quizdesk/internal/app"
	"quizdesk/internal/config"
	"quizdesk/internal/infra/memory"
	"quizdesk/internal/infra/postgres"
	redisstore "quizdesk/internal/infra/redis"
	"quizdesk/internal/logging"
	"quizdesk/internal/monitoring"
	"quizdesk/internal/session"
	transport "quizdesk/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	backends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.close()

	accounts, err := app.NewAccountService(backends.store)
	if err != nil {
		return err
	}
	if err := bootstrapAdmin(ctx, cfg, accounts, logger); err != nil {
		return err
	}

	feed := app.NewAttemptFeed()
	sessions, err := session.NewManager(backends.sessions, session.Options{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.SessionTTL(),
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return err
	}
	handler, err := transport.NewHandler(transport.Deps{
		Accounts: accounts,
		Quizzes:  app.NewQuizService(backends.store, feed),
		Sessions: sessions,
		Feed:     feed,
		Limiter:  transport.NewLoginLimiter(cfg.Login.RatePerMinute, cfg.Login.Burst),
		Metrics:  monitoring.New(),
		Logger:   logger,
		Health:   backends.ping,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// backends are the stores the server runs on: Postgres and Redis when
// configured, process memory otherwise.
type backends struct {
	store    app.Store
	sessions session.Store
	pool     *pgxpool.Pool
	redis    *redis.Client
}

func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.store = postgres.NewStore(pool)
	} else {
		logger.Warn("postgres not configured; data is kept in memory and lost on exit")
		b.store = memory.NewStore()
	}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.sessions = redisstore.NewSessionStore(b.redis)
	} else {
		b.sessions = memory.NewSessionStore()
	}
	return b, nil
}

func (b *backends) ping(ctx context.Context) error {
	if b.pool != nil {
		if err := b.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (b *backends) close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// bootstrapAdmin creates the configured admin once when a bootstrap password
// is set. Without one nothing is created.
func bootstrapAdmin(ctx context.Context, cfg config.Config, accounts *app.AccountService, logger *zap.Logger) error {
	username := cfg.Bootstrap.AdminUsername
	if cfg.Bootstrap.AdminPassword == "" {
		exists, err := accounts.Exists(ctx, username)
		if err != nil {
			return fmt.Errorf("check admin: %w", err)
		}
		if !exists {
			logger.Warn("no administrator provisioned; set QUIZDESK_ADMIN_PASSWORD or run create-admin",
				zap.String("username", username))
		}
		return nil
	}

	created, err := accounts.EnsureAdmin(ctx, app.Credentials{Username: username, Password: cfg.Bootstrap.AdminPassword})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("username", username))
	}
	return nil
}
