package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mmo1994/SurnaturToDo/auth"
	"github.com/mmo1994/SurnaturToDo/config"
	"github.com/mmo1994/SurnaturToDo/database"
	"github.com/mmo1994/SurnaturToDo/handlers"
	"github.com/mmo1994/SurnaturToDo/metrics"
	"github.com/mmo1994/SurnaturToDo/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var users store.UserStore
	var todos store.TodoStore
	if cfg.Database.Configured() {
		db, err := database.Open(ctx, cfg.Database.ConnString())
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("migrating schema", zap.Error(err))
		}
		logger.Info("connected to postgres")
		users = store.NewUsers(db)
		todos = store.NewTodos(db)
	} else {
		logger.Warn("no database configured, using in-memory store; data will not survive a restart")
		users = store.NewMemUsers()
		todos = store.NewMemTodos()
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handlers.New(users, todos, issuer, logger)
	router := h.Router(metrics.New())

	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins(cfg.CORS.Origins()),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "x-auth-token"}),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           cors(router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

// newLogger builds a production JSON logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
