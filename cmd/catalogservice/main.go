package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	httpAPI "movie-catalog/internal/api"
	"movie-catalog/internal/catalog"
	"movie-catalog/internal/config"
	"movie-catalog/internal/domain"
	grpcServer "movie-catalog/internal/grpc"
	"movie-catalog/internal/logging"
	"movie-catalog/internal/store"
	"movie-catalog/pkg/auth"
)

// stores - набор хранилищ выбранного драйвера
type stores struct {
	movies   store.MovieStore
	users    store.UserStore
	comments store.CommentStore
	tx       store.Transactor
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Catalog service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("Failed to close storage", slog.String("error", err.Error()))
		}
	}()

	validate, err := domain.NewValidator()
	if err != nil {
		return err
	}
	tokenManager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	svc := catalog.NewService(st.movies, st.users, st.tx, cfg.CatalogService(), logger)

	// --- gRPC сервер ---
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %d: %w", cfg.Server.GRPCPort, err)
	}
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcServer.UnaryLoggingInterceptor(logger)))
	grpcServer.RegisterCatalogServer(grpcSrv, grpcServer.NewServer(st.movies, svc, cfg.Catalog.DefaultLimit, logger))
	if cfg.Server.GRPCReflection {
		reflection.Register(grpcSrv)
	}

	// --- HTTP сервер ---
	handler := httpAPI.NewHandler(httpAPI.Dependencies{
		Movies:       st.movies,
		Users:        st.users,
		Comments:     st.comments,
		Catalog:      svc,
		Logger:       logger,
		Validator:    validate,
		TokenManager: tokenManager,
		Options: httpAPI.Options{
			DefaultLimit: cfg.Catalog.DefaultLimit,
			MaxPageSize:  cfg.Catalog.MaxLimit,
		},
	})
	router := httpAPI.NewRouter(handler, httpAPI.RouterOptions{
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
		RequestTimeout:    cfg.Server.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Catalog gRPC server starting", slog.Int("port", cfg.Server.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()
	go func() {
		logger.Info("Catalog HTTP server starting", slog.Int("port", cfg.Server.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Catalog service shutting down...")
	case serveErr = <-errCh:
		logger.Error("Server failed, shutting down", slog.String("error", serveErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	grpcSrv.GracefulStop()
	logger.Info("gRPC server gracefully stopped.")
	return serveErr
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		movies := store.NewMemoryMovieStore(logger)
		users := store.NewMemoryUserStore(logger)
		return &stores{
			movies:   movies,
			users:    users,
			comments: store.NewMemoryCommentStore(),
			tx:       store.NewMemoryTransactor(movies, users),
			close:    func() error { return nil },
		}, nil
	}

	db, err := store.Connect(ctx, store.ConnOptions{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*stores, error) {
		db.Close()
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db, logger); err != nil {
			return fail(err)
		}
	}

	movies, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		return fail(err)
	}
	users, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		return fail(err)
	}
	comments, err := store.NewPostgresCommentStore(db, logger)
	if err != nil {
		return fail(err)
	}
	tx, err := store.NewPostgresTransactor(db, cfg.TxRetries, logger)
	if err != nil {
		return fail(err)
	}
	logger.Info("PostgreSQL stores initialized.")
	return &stores{
		movies:   movies,
		users:    users,
		comments: comments,
		tx:       tx,
		close: func() error {
			logger.Info("Closing PostgreSQL database connection...")
			return db.Close()
		},
	}, nil
}
