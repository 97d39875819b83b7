// Package janitor deletes temporary directories after a grace period.
//
// Lecture processing hands its output file to the HTTP response writer, so
// the working directory cannot be removed inline. Instead each directory is
// scheduled here: a row in SQLite names the path and the earliest moment it
// may be deleted. A failed removal pushes the row back with a visibility
// delay, so deletion survives transient errors and process restarts.
package janitor

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/mentorai/backend/idgen"
)

// Options configures the janitor.
type Options struct {
	// RetryDelay is how long a failed removal stays invisible before the
	// next attempt. Default: 30s.
	RetryDelay time.Duration
	// PollInterval is the delay between sweep attempts in the Run loop.
	// Default: 10s.
	PollInterval time.Duration
	// MaxAttempts limits removal attempts per path before the row is
	// dropped. 0 means unlimited. Default: 5.
	MaxAttempts int
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.RetryDelay <= 0 {
		o.RetryDelay = 30 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 5
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Janitor is the cleanup queue handle.
type Janitor struct {
	db     *sql.DB
	opts   Options
	remove func(string) error
}

// New creates a Janitor over db. Call EnsureTable once at startup.
func New(db *sql.DB, opts Options) *Janitor {
	opts.defaults()
	return &Janitor{db: db, opts: opts, remove: os.RemoveAll}
}

// EnsureTable creates the janitor_paths table and index if they don't exist.
func (j *Janitor) EnsureTable(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS janitor_paths (
			id          TEXT PRIMARY KEY,
			path        TEXT NOT NULL,
			visible_at  INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL,
			attempts    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_janitor_visible ON janitor_paths (visible_at);
	`)
	return err
}

// Schedule queues path for removal no earlier than delay from now.
func (j *Janitor) Schedule(ctx context.Context, path string, delay time.Duration) error {
	now := time.Now()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO janitor_paths (id, path, visible_at, created_at) VALUES (?,?,?,?)`,
		idgen.New(), path, now.Add(delay).UnixMilli(), now.UnixMilli(),
	)
	return err
}

// Len returns the number of pending paths.
func (j *Janitor) Len(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM janitor_paths`).Scan(&n)
	return n, err
}

type entry struct {
	id       string
	path     string
	attempts int
}

// claim atomically picks the oldest eligible path and pushes its visibility
// forward so a concurrent sweeper skips it. Returns nil when nothing is due.
func (j *Janitor) claim(ctx context.Context) (*entry, error) {
	now := time.Now()
	hideUntil := now.Add(j.opts.RetryDelay).UnixMilli()

	row := j.db.QueryRowContext(ctx, `
		UPDATE janitor_paths
		SET visible_at = ?, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM janitor_paths
			WHERE visible_at <= ?
			ORDER BY visible_at ASC
			LIMIT 1
		)
		RETURNING id, path, attempts`,
		hideUntil, now.UnixMilli(),
	)

	var e entry
	err := row.Scan(&e.id, &e.path, &e.attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (j *Janitor) ack(ctx context.Context, id string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM janitor_paths WHERE id = ?`, id)
	return err
}

// Sweep removes all currently eligible paths. Returns the number of paths
// removed. Exposed for tests and for a final sweep at shutdown.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	log := j.opts.Logger
	removed := 0
	for {
		e, err := j.claim(ctx)
		if err != nil {
			return removed, err
		}
		if e == nil {
			return removed, nil
		}

		if j.opts.MaxAttempts > 0 && e.attempts > j.opts.MaxAttempts {
			log.Warn("janitor: path exceeded max attempts, dropping",
				"path", e.path, "attempts", e.attempts)
			_ = j.ack(ctx, e.id)
			continue
		}

		if err := j.remove(e.path); err != nil {
			// stays claimed; retried after RetryDelay
			log.Warn("janitor: removal failed", "path", e.path, "error", err)
			continue
		}
		_ = j.ack(ctx, e.id)
		removed++
		log.Debug("janitor: removed", "path", e.path)
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	log := j.opts.Logger
	log.Info("janitor: started", "poll", j.opts.PollInterval, "retry_delay", j.opts.RetryDelay)

	ticker := time.NewTicker(j.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("janitor: stopped")
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Warn("janitor: sweep failed", "error", err)
			}
		}
	}
}
