// file: repository/postgres_token_store.go

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"go-access-gate/logger"
	"go-access-gate/model"
	"sort"

	"github.com/sirupsen/logrus"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// PostgresTokenStore keeps one row per token in the access_tokens table.
type PostgresTokenStore struct {
	DB *sql.DB
}

func NewPostgresTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{DB: db}
}

func (r *PostgresTokenStore) Load(ctx context.Context) (model.TokenTable, error) {
	return r.selectAll(ctx, r.DB)
}

// Save replaces every row with the contents of table in one transaction.
func (r *PostgresTokenStore) Save(ctx context.Context, table model.TokenTable) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.replaceAll(ctx, tx, table); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Update locks the table for the duration of the cycle so concurrent
// updates from any process are serialized.
func (r *PostgresTokenStore) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE access_tokens IN EXCLUSIVE MODE`); err != nil {
		logger.Log.WithError(err).Error("Failed to lock access_tokens")
		return fmt.Errorf("could not lock access_tokens: %w", err)
	}

	table, err := r.selectAll(ctx, tx)
	if err != nil {
		return err
	}
	before := make(model.TokenTable, len(table))
	for token, rec := range table {
		before[token] = rec
	}

	changed, err := fn(table)
	if err != nil {
		return err
	}
	if changed {
		if err := r.applyDiff(ctx, tx, before, table); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresTokenStore) selectAll(ctx context.Context, q queryer) (model.TokenTable, error) {
	log := logger.Log
	log.Debug("Executing query to load all access tokens")

	rows, err := q.QueryContext(ctx, `SELECT token, expires_at FROM access_tokens`)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for access tokens")
		return nil, fmt.Errorf("could not query access tokens: %w", err)
	}
	defer rows.Close()

	table := model.TokenTable{}
	for rows.Next() {
		var token string
		var rec model.TokenRecord
		if err := rows.Scan(&token, &rec.ExpiresAt); err != nil {
			log.WithError(err).Error("Failed to scan access token row")
			return nil, fmt.Errorf("could not scan access token: %w", err)
		}
		table[token] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate access tokens: %w", err)
	}
	return table, nil
}

// applyDiff writes only the rows that differ between before and after.
func (r *PostgresTokenStore) applyDiff(ctx context.Context, tx *sql.Tx, before, after model.TokenTable) error {
	var removed, upserted []string
	for token := range before {
		if _, ok := after[token]; !ok {
			removed = append(removed, token)
		}
	}
	for token, rec := range after {
		if old, ok := before[token]; !ok || old != rec {
			upserted = append(upserted, token)
		}
	}
	sort.Strings(removed)
	sort.Strings(upserted)

	log := logger.Log.WithFields(logrus.Fields{"removed": len(removed), "upserted": len(upserted)})
	log.Debug("Executing queries to apply access token changes")

	for _, token := range removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM access_tokens WHERE token = $1`, token); err != nil {
			log.WithError(err).Error("Failed to delete access token")
			return fmt.Errorf("could not delete access token: %w", err)
		}
	}
	for _, token := range upserted {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO access_tokens (token, expires_at) VALUES ($1, $2) ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
			token, after[token].ExpiresAt)
		if err != nil {
			log.WithError(err).Error("Failed to upsert access token")
			return fmt.Errorf("could not upsert access token: %w", err)
		}
	}
	return nil
}

func (r *PostgresTokenStore) replaceAll(ctx context.Context, tx *sql.Tx, table model.TokenTable) error {
	log := logger.Log.WithFields(logrus.Fields{"tokens": len(table)})
	log.Debug("Executing queries to replace access tokens")

	if _, err := tx.ExecContext(ctx, `DELETE FROM access_tokens`); err != nil {
		log.WithError(err).Error("Failed to clear access tokens")
		return fmt.Errorf("could not clear access tokens: %w", err)
	}

	tokens := make([]string, 0, len(table))
	for token := range table {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	for _, token := range tokens {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO access_tokens (token, expires_at) VALUES ($1, $2)`,
			token, table[token].ExpiresAt)
		if err != nil {
			log.WithError(err).Error("Failed to insert access token")
			return fmt.Errorf("could not insert access token: %w", err)
		}
	}
	return nil
}
