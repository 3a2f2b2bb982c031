// Package postgresdb provides a PostgreSQL-backed store for the persisted
// client state, so several hosts sharing a database keep the same session.
// The schema is migrated with goose from migrations embedded in the binary.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// PostgresDB stores client state rows in the client_state table.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

type InitOption func(*initOptions)

// WithDBPreReset drops the schema before migrating. Intended for tests.
func WithDBPreReset(dbPreReset bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = dbPreReset
	}
}

// New opens the connection, runs the migrations and returns the store.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := openDB("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.prepare(ctx, options); err != nil {
		if closeErr := database.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	return result, nil
}

var openDB = sql.Open

// prepare checks the connection and migrates the schema.
func (db *PostgresDB) prepare(ctx context.Context, options *initOptions) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `db.Ping()` calling: %w",
			err,
		)
	}

	if options.DBPreReset {
		if err := db.resetDB(ctx); err != nil {
			return fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `db.resetDB()` calling: %w",
				err,
			)
		}
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
			err,
		)
	}

	if err := goose.UpContext(ctx, db.database, migrationsDir); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
			err,
		)
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`DROP TABLE IF EXISTS client_state, goose_db_version`,
	)

	return err
}

func (db *PostgresDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.connectionTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, db.connectionTimeout)
}

// Get returns the stored value of key.
func (db *PostgresDB) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`SELECT "value" FROM client_state WHERE "key" = $1`,
		key,
	)
	var value string
	err := row.Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return value, true, nil
}

// Set upserts the value of key.
func (db *PostgresDB) Set(ctx context.Context, key, value string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO client_state ("key", "value", updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT ("key") DO UPDATE
				SET
					"value" = EXCLUDED."value",
					updated_at = EXCLUDED.updated_at
		`,
		key,
		value,
	)

	return err
}

// Remove deletes all the given keys in one statement.
func (db *PostgresDB) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	placeholders := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = key
	}

	_, err := db.database.ExecContext(
		ctx,
		fmt.Sprintf(
			`DELETE FROM client_state WHERE "key" IN (%s)`,
			strings.Join(placeholders, ","),
		),
		args...,
	)

	return err
}

// Ping verifies the database is reachable within the connection timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.database.PingContext(ctx)
}

func (db *PostgresDB) Close() error {
	return db.database.Close()
}
