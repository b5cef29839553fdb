// Package history persists a record of every build in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitegen/internal/build"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Record is one stored build.
type Record struct {
	ID             int64
	BuildID        string
	Site           string
	Trigger        string
	Outcome        string
	Stage          string
	Pages          int
	Published      bool
	Error          string
	Start          time.Time
	Duration       time.Duration
	StageDurations map[string]time.Duration
}

// SQLiteStore stores build records in SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.NewError(ferrors.CategoryStorage, "open history database").
			WithCause(err).WithContext("path", path).Build()
	}
	// one connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.NewError(ferrors.CategoryStorage, "initialize history schema").
			WithCause(err).WithContext("path", path).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		site TEXT NOT NULL,
		build_trigger TEXT NOT NULL,
		outcome TEXT NOT NULL,
		stage TEXT NOT NULL,
		pages INTEGER NOT NULL,
		published INTEGER NOT NULL,
		error TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		stage_durations TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_site ON builds(site);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild stores a finished build. It satisfies build.Sink.
func (s *SQLiteStore) RecordBuild(ctx context.Context, r *build.Result) error {
	durations := make(map[string]int64, len(r.StageDurations))
	for stage, d := range r.StageDurations {
		durations[string(stage)] = d.Milliseconds()
	}
	durationsJSON, err := json.Marshal(durations)
	if err != nil {
		return fmt.Errorf("marshal stage durations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, site, build_trigger, outcome, stage, pages, published, error, started_at, duration_ms, stage_durations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BuildID, r.Site, string(r.Trigger), string(r.Outcome), string(r.Stage), r.Pages, r.Published,
		r.ErrorString(), r.Start.UnixMilli(), r.Duration().Milliseconds(), string(durationsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty site matches all sites.
func (s *SQLiteStore) Recent(ctx context.Context, site string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, site, build_trigger, outcome, stage, pages, published, error, started_at, duration_ms, stage_durations
		 FROM builds WHERE (? = '' OR site = ?) ORDER BY id DESC LIMIT ?`,
		site, site, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec           Record
			errText       sql.NullString
			durationsJSON sql.NullString
			startedMS     int64
			durationMS    int64
		)
		if err := rows.Scan(&rec.ID, &rec.BuildID, &rec.Site, &rec.Trigger, &rec.Outcome, &rec.Stage,
			&rec.Pages, &rec.Published, &errText, &startedMS, &durationMS, &durationsJSON); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Error = errText.String
		rec.Start = time.UnixMilli(startedMS)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if durationsJSON.Valid && durationsJSON.String != "" {
			var ms map[string]int64
			if err := json.Unmarshal([]byte(durationsJSON.String), &ms); err != nil {
				return nil, fmt.Errorf("unmarshal stage durations: %w", err)
			}
			rec.StageDurations = make(map[string]time.Duration, len(ms))
			for k, v := range ms {
				rec.StageDurations[k] = time.Duration(v) * time.Millisecond
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
