// Package storage provides the optional Postgres lead store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// PostgresDB wraps the database connection pool.
type PostgresDB struct {
	*sql.DB
	log *logger.Logger
}

// NewPostgres creates a connection pool and verifies connectivity.
func NewPostgres(cfg config.DatabaseConfig, log *logger.Logger) (*PostgresDB, error) {
	if log == nil {
		log = logger.Discard()
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{DB: db, log: log.WithComponent("storage")}, nil
}

// Close closes the database connection pool.
func (db *PostgresDB) Close() error {
	return db.DB.Close()
}

// Health checks database connectivity.
func (db *PostgresDB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Migrate creates the leads table when it does not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS leads (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			business_name TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads (run_id);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create leads schema: %w", err)
	}
	return nil
}

// SaveLeads stores one run's clean lead list in a single transaction.
func (db *PostgresDB) SaveLeads(ctx context.Context, runID string, list []leads.Lead) error {
	if len(list) == 0 {
		return nil
	}
	start := time.Now()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO leads (
				id, run_id, business_name, phone_number, website, address, email, source
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range list {
			_, err := stmt.ExecContext(ctx,
				uuid.NewString(), runID,
				l.BusinessName, l.PhoneNumber, l.Website, l.Address, l.Email, l.Source,
			)
			if err != nil {
				return fmt.Errorf("failed to insert lead %q: %w", l.BusinessName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.log.Info("leads stored",
		"run_id", runID,
		"count", len(list),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// withTx executes a function within a transaction.
func (db *PostgresDB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
