// Package app assembles the GroupPay server from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/grouppay/internal/api"
	"github.com/mmynk/grouppay/internal/api/handler"
	"github.com/mmynk/grouppay/internal/auth"
	"github.com/mmynk/grouppay/internal/config"
	"github.com/mmynk/grouppay/internal/events"
	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/lock/redislock"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/rpc"
	"github.com/mmynk/grouppay/internal/service"
	"github.com/mmynk/grouppay/internal/storage/sqlstore"
)

// Application holds all the initialized components of the server.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *sqlstore.Store
	Metrics *metrics.Metrics

	HTTPHandler http.Handler

	closers []func() error
}

// New initializes every component described by cfg. On error, whatever was
// already opened is released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Application, err error) {
	a := &Application{Config: cfg, Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Shutdown(context.Background())
		}
	}()

	// 1. Storage
	if cfg.DBDriver == "sqlite" {
		a.Store, err = sqlstore.New(cfg.DatabaseDSN)
	} else {
		a.Store, err = sqlstore.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.closers = append(a.closers, a.Store.Close)
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	// 2. Group lock
	locker, err := a.newLocker(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Events
	publisher, err := a.newPublisher()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	// 4. Services
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL.Std())
	credentials := auth.NewPasswordAuthenticator(a.Store, auth.WithResetTTL(cfg.ResetTokenTTL.Std()))
	notifications := service.NewNotificationService(a.Store, logger)
	expenses := service.NewExpenseService(a.Store, locker, publisher, notifications, a.Metrics, logger)
	balances := service.NewBalanceService(a.Store, locker, notifications, a.Metrics, logger)

	h := handler.New(handler.Services{
		Auth:          service.NewAuthService(credentials, jwtManager, a.Store, logger),
		Groups:        service.NewGroupService(a.Store, locker, notifications, a.Metrics, logger),
		Expenses:      expenses,
		Balances:      balances,
		Notifications: notifications,
	}, logger, handler.WithExposedResetTokens(cfg.ExposeResetTokens))

	// 5. Transports
	rpcPath, rpcHandler := rpc.NewLedgerServiceHandler(rpc.NewLedgerServer(expenses, balances), jwtManager, logger)
	a.HTTPHandler = api.NewRouter(h, api.Options{
		Authorizer: jwtManager,
		Metrics:    a.Metrics,
		Logger:     logger,
		Mounts:     []api.Mount{{Path: rpcPath, Handler: rpcHandler}},
	})
	logger.Info("HTTP router and handlers initialized", "rpc_path", rpcPath)

	return a, nil
}

func (a *Application) newLocker(ctx context.Context) (ledger.Locker, error) {
	if a.Config.RedisAddr == "" {
		a.Logger.Info("Using in-process group lock")
		return ledger.NewLocalLocker(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	a.closers = append(a.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	opts := redislock.DefaultOptions()
	opts.Expiry = a.Config.LockExpiry.Std()
	opts.Tries = a.Config.LockTries
	locker, err := redislock.New(client, opts)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("Using redis group lock", "addr", a.Config.RedisAddr)
	return locker, nil
}

func (a *Application) newPublisher() (events.Publisher, error) {
	if a.Config.AMQPURL == "" {
		return events.NewLogPublisher(a.Logger), nil
	}
	publisher, err := events.DialAMQP(a.Config.AMQPURL, a.Config.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp: %w", err)
	}
	a.Logger.Info("Publishing events to amqp", "exchange", a.Config.AMQPExchange)
	return publisher, nil
}

// Shutdown releases resources in the reverse order they were acquired.
func (a *Application) Shutdown(_ context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("Shutdown failed", "error", err)
		return err
	}
	a.Logger.Info("Application shut down")
	return nil
}
