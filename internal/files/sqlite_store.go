package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harrylevesque/revisitor/internal/models"
)

// SQLiteStore keeps review records in a SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens or creates the database at dbPath. ":memory:" is accepted.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS review_records (
		event_id TEXT PRIMARY KEY,
		level INTEGER NOT NULL,
		reviews_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Get(ctx context.Context, eventID string) (models.ReviewRecord, bool, error) {
	var (
		level   int
		reviews string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT level, reviews_json FROM review_records WHERE event_id = ?`, eventID,
	).Scan(&level, &reviews)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReviewRecord{}, false, nil
	}
	if err != nil {
		return models.ReviewRecord{}, false, err
	}
	rec, err := decodeRow(eventID, level, reviews)
	if err != nil {
		return models.ReviewRecord{}, false, err
	}
	return rec, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec models.ReviewRecord) error {
	reviews, err := json.Marshal(rec.Reviews)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_records (event_id, level, reviews_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			level = excluded.level,
			reviews_json = excluded.reviews_json,
			updated_at = excluded.updated_at`,
		rec.EventID, rec.Level, string(reviews), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM review_records WHERE event_id = ?`, eventID)
	return err
}

func (s *SQLiteStore) All(ctx context.Context) (map[string]models.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, level, reviews_json FROM review_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]models.ReviewRecord{}
	for rows.Next() {
		var (
			id      string
			level   int
			reviews string
		)
		if err := rows.Scan(&id, &level, &reviews); err != nil {
			return nil, err
		}
		rec, err := decodeRow(id, level, reviews)
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, rows.Err()
}

func decodeRow(id string, level int, reviews string) (models.ReviewRecord, error) {
	rec := models.ReviewRecord{EventID: id, Level: level}
	if err := json.Unmarshal([]byte(reviews), &rec.Reviews); err != nil {
		return models.ReviewRecord{}, fmt.Errorf("decode reviews for %s: %w", id, err)
	}
	return rec, nil
}
