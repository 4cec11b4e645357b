package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-forecasts/internal/forecast"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists forecasts as JSON documents in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLite creates or opens the database at path and ensures the schema exists.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY and
	// serializes the conditional replace transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "database").Logger(),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) FindAll(ctx context.Context) ([]forecast.Forecast, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, `SELECT etag, document FROM forecasts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var result []forecast.Forecast
	for rows.Next() {
		var etag, doc string
		if err := rows.Scan(&etag, &doc); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		f, err := decodeDocument(etag, doc)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecasts: %w", err)
	}

	s.logOperation("find_all", start, len(result), nil)
	return result, nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, id int) (forecast.Forecast, error) {
	var etag, doc string
	err := s.db.QueryRowContext(ctx, `SELECT etag, document FROM forecasts WHERE id = ?`, id).Scan(&etag, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return forecast.Forecast{}, forecast.ErrNotFound
	}
	if err != nil {
		return forecast.Forecast{}, fmt.Errorf("query forecast %d: %w", id, err)
	}
	return decodeDocument(etag, doc)
}

// InsertOne writes f unless the id is taken. ON CONFLICT keeps the existence
// check and the write in one statement.
func (s *SQLiteStore) InsertOne(ctx context.Context, f forecast.Forecast) error {
	start := time.Now()

	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forecast %d: %w", f.ID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO forecasts (id, etag, document)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, f.ID, f.ETag, string(doc))
	if err != nil {
		s.logOperation("insert_one", start, 0, err)
		return fmt.Errorf("insert forecast %d: %w", f.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert forecast %d: rows affected: %w", f.ID, err)
	}
	s.logOperation("insert_one", start, int(n), nil)
	if n == 0 {
		return forecast.ErrDuplicateID
	}
	return nil
}

// ReplaceOne conditionally replaces the document keyed on both id and token.
// The stored token is read and compared inside the transaction; the update is
// then pinned to that exact value.
func (s *SQLiteStore) ReplaceOne(ctx context.Context, f forecast.Forecast, expectedETag string) error {
	start := time.Now()

	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forecast %d: %w", f.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace forecast %d: begin tx: %w", f.ID, err)
	}
	defer tx.Rollback() // no-op after commit

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT etag FROM forecasts WHERE id = ?`, f.ID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return forecast.ErrNotFound
	}
	if err != nil {
		s.logOperation("replace_one", start, 0, err)
		return fmt.Errorf("replace forecast %d: read etag: %w", f.ID, err)
	}
	if !forecast.ETagsMatch(stored, expectedETag) {
		return forecast.ErrETagMismatch
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE forecasts
		SET etag = ?, document = ?
		WHERE id = ? AND etag = ?
	`, f.ETag, string(doc), f.ID, stored)
	if err != nil {
		s.logOperation("replace_one", start, 0, err)
		return fmt.Errorf("replace forecast %d: %w", f.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace forecast %d: rows affected: %w", f.ID, err)
	}
	if n == 0 {
		return forecast.ErrETagMismatch
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace forecast %d: commit: %w", f.ID, err)
	}
	s.logOperation("replace_one", start, int(n), nil)
	return nil
}

func (s *SQLiteStore) DeleteOne(ctx context.Context, id int) (int, error) {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM forecasts WHERE id = ?`, id)
	if err != nil {
		s.logOperation("delete_one", start, 0, err)
		return 0, fmt.Errorf("delete forecast %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete forecast %d: rows affected: %w", id, err)
	}
	s.logOperation("delete_one", start, int(n), nil)
	return int(n), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forecasts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count forecasts: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) logOperation(op string, start time.Time, records int, err error) {
	if err != nil {
		s.logger.Error().Str("operation", op).Dur("duration_ms", time.Since(start)).Err(err).
			Msg("database operation failed")
		return
	}
	s.logger.Debug().Str("operation", op).Dur("duration_ms", time.Since(start)).Int("record_count", records).
		Msg("database operation completed")
}

func decodeDocument(etag, doc string) (forecast.Forecast, error) {
	var f forecast.Forecast
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return forecast.Forecast{}, fmt.Errorf("decode forecast document: %w", err)
	}
	f.ETag = etag
	return f, nil
}
