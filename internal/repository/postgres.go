package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/config"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Store
// methods take it explicitly so that every participant in an atomic operation
// carries the same transaction in its signature.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to Postgres and configures the connection pool.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// RunMigrations applies pending schema migrations from the configured path.
func RunMigrations(db *sql.DB, cfg config.DatabaseConfig) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cfg.MigrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// TxStore runs functions inside a database transaction. Any error returned by
// fn rolls the transaction back in full; begin and commit failures are wrapped
// as TransactionFailureError.
type TxStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTxStore creates a transaction runner over the given database.
func NewTxStore(db *sql.DB, logger *zap.Logger) *TxStore {
	return &TxStore{db: db, logger: logger}
}

// RunInTx executes fn inside a transaction and commits iff fn returns nil.
func (s *TxStore) RunInTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return &apperrors.TransactionFailureError{Err: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("transaction rollback failed", zap.Error(rbErr))
		}
		return apperrors.NewTransactionFailure(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("transaction commit failed", zap.Error(err))
		return &apperrors.TransactionFailureError{Err: err}
	}

	return nil
}
