// Package sqlite keeps a local history of generated plans in a single SQLite
// file. Plan bodies are stored zstd-compressed.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/planfile"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Meta is stored next to each plan.
type Meta struct {
	InputHash string
}

// Record is one history row without its body.
type Record struct {
	plan.Summary
	InputHash string `json:"input_hash"`
}

// Store is the plan history database.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the history database at path and migrates it.
func Open(path string, log logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.InvalidParam("empty history db path")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create history dir")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "open history db")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, logger: log}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("history store opened", logging.String("path", path))
	return s, nil
}

// Migrate applies pragmas and creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			portal_count INTEGER NOT NULL,
			link_count INTEGER NOT NULL,
			field_count INTEGER NOT NULL,
			total_ap INTEGER NOT NULL,
			total_meters REAL NOT NULL,
			agents INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			input_hash TEXT NOT NULL,
			body BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS plans_created_at ON plans(created_at);`,
		`CREATE INDEX IF NOT EXISTS plans_input_hash ON plans(input_hash);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "migrate history db")
		}
	}
	return nil
}

// Save inserts or replaces p.
func (s *Store) Save(ctx context.Context, p *plan.Plan, meta Meta) error {
	body, err := planfile.Marshal(p, true)
	if err != nil {
		return err
	}
	sum := p.Summarize()
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO plans
		(id, created_at, portal_count, link_count, field_count, total_ap, total_meters, agents, seed, input_hash, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339Nano),
		sum.Portals, sum.Links, sum.Fields, sum.TotalAP, sum.TotalMeters, sum.Agents, sum.Seed,
		meta.InputHash, body,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "save plan")
	}
	return nil
}

// Get loads the plan with id.
func (s *Store) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM plans WHERE id = ?`, id).Scan(&body)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodePlanNotFound, "plan not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load plan")
	}
	return planfile.Unmarshal(body)
}

// FindByHash returns the newest plan generated from inputHash.
func (s *Store) FindByHash(ctx context.Context, inputHash string) (*plan.Plan, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM plans WHERE input_hash = ? ORDER BY created_at DESC LIMIT 1`, inputHash).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodePlanNotFound, "no plan for input").WithDetail(inputHash)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "find plan by hash")
	}
	return s.Get(ctx, id)
}

// List returns the newest limit records, newest first. limit ≤ 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, portal_count, link_count, field_count,
		total_ap, total_meters, agents, seed, input_hash
		FROM plans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list plans")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Portals, &r.Links, &r.Fields,
			&r.TotalAP, &r.TotalMeters, &r.Agents, &r.Seed, &r.InputHash); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan plan row")
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageCorrupted, "parse created_at")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list plans")
	}
	return out, nil
}

// Delete removes the plan with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "delete plan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodePlanNotFound, "plan not found").WithDetail(id)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "ping history db")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

//Personal.AI order the ending
