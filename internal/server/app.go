// Package server initializes and runs the identity server: database and
// migrations, the message bus for verification emails, the service layer
// and the HTTP endpoint, with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/amaravathi/tradeidentity/internal/logging"
	"github.com/amaravathi/tradeidentity/internal/mailer"
	"github.com/amaravathi/tradeidentity/internal/password"
	"github.com/amaravathi/tradeidentity/internal/server/auth"
	"github.com/amaravathi/tradeidentity/internal/server/config"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/repomanager"
	"github.com/amaravathi/tradeidentity/internal/server/services"
	transport "github.com/amaravathi/tradeidentity/internal/server/transport/http"
	"github.com/amaravathi/tradeidentity/internal/token"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db     *sql.DB
	pubSub *gochannel.GoChannel

	authService         *services.AuthService
	verificationService *services.VerificationService
	adminService        *services.UserAdminService
	tokenService        *auth.TokenService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	sender := mailer.NewWatermillSender(pubSub)

	sessions := services.NewRefreshSessionService(db, rm, cfg)
	verification := services.NewVerificationService(db, rm, sender, logger, cfg)
	authService := services.NewAuthService(db, rm, password.NewBcryptHasher(), tokens, sessions, verification, logger)
	admin := services.NewUserAdminService(db, rm)

	return &App{
		config:              cfg,
		logger:              logger,
		db:                  db,
		pubSub:              pubSub,
		authService:         authService,
		verificationService: verification,
		adminService:        admin,
		tokenService:        tokens,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startEmailWorker consumes verification-email events. Until an SMTP
// integration subscribes instead, delivered links are logged masked so
// operators can follow the flow without seeing raw tokens.
func (app *App) startEmailWorker(ctx context.Context) error {
	msgs, err := app.pubSub.Subscribe(ctx, mailer.VerificationEmailTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			var event mailer.VerificationEmailEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				app.logger.Error(ctx, "bad verification email event", "messageID", msg.UUID)
				msg.Ack()
				continue
			}
			app.logger.Info(ctx, "verification email queued",
				"messageID", msg.UUID,
				"email", event.Email,
				"link", token.MaskURL(event.URL),
			)
			msg.Ack()
		}
	}()
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := transport.NewRouter(app.authService, app.verificationService, app.adminService, app.tokenService)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting identity server")

	app.initSignalHandler(cancelFunc)

	if err := app.startEmailWorker(ctx); err != nil {
		app.logger.Error(ctx, "email worker error", "error", err.Error())
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.pubSub.Close(); err != nil {
		app.logger.Error(ctx, "pubsub close error", "error", err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
