package store

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // драйвер PostgreSQL
)

//go:embed schema.sql
var schema string

// ConnOptions - параметры пула соединений PostgreSQL
type ConnOptions struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect инициализирует соединение с базой данных и проверяет его через Ping
func Connect(ctx context.Context, opts ConnOptions, logger *slog.Logger) (*sqlx.DB, error) {
	logger.Info("Attempting to connect to catalog database", slog.String("dbURL_used", redactURL(opts.URL)))

	db, err := sqlx.ConnectContext(ctx, "postgres", opts.URL)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping PostgreSQL database", slog.String("error", err.Error()))
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL database.")
	return db, nil
}

// Migrate создает таблицы и индексы, если их еще нет
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("Failed to apply database schema", slog.String("error", err.Error()))
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Database schema is up to date.")
	return nil
}

// redactURL скрывает пароль в строке подключения для логов
func redactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "********")
	}
	return u.String()
}
