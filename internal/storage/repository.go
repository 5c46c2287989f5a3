// Package storage persists run summaries to SQLite. Input transactions are
// never stored; each row is the aggregate outcome of one completed run.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations brings the schema up to date over a dedicated connection so
// the repository pool never sees a mid-migration state.
func applyMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("assemble migration runner: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded computation: request digest, shape counters and totals.
type Run struct {
	ID            int64
	Digest        string
	Instrument    string
	Accepted      int64
	Rejected      int64
	Duplicates    int64
	Windows       int64
	AmountPaise   int64
	CeilingPaise  int64
	RemanentPaise int64
	CreatedAt     time.Time
	ExportedAt    sql.NullTime
}

// RunRepository stores and lists recorded runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository opens (and migrates) the run database at dbPath.
func NewRunRepository(dbPath string) (*RunRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run schema: %w", err)
	}

	return &RunRepository{db: db}, nil
}

// Ping verifies the database connection.
func (r *RunRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (r *RunRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateRun records a completed run and returns its ID.
func (r *RunRepository) CreateRun(ctx context.Context, run Run) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			digest, instrument, accepted, rejected, duplicates, windows,
			total_amount_paise, total_ceiling_paise, total_remanent_paise
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Digest, run.Instrument, run.Accepted, run.Rejected, run.Duplicates,
		run.Windows, run.AmountPaise, run.CeilingPaise, run.RemanentPaise,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Run recorded",
		"id", id,
		"digest", run.Digest,
		"accepted", run.Accepted,
		"remanent_paise", run.RemanentPaise)
	return id, nil
}

const runColumns = `
	id, digest, instrument, accepted, rejected, duplicates, windows,
	total_amount_paise, total_ceiling_paise, total_remanent_paise,
	created_at, exported_at`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.Digest, &run.Instrument, &run.Accepted, &run.Rejected,
		&run.Duplicates, &run.Windows, &run.AmountPaise, &run.CeilingPaise,
		&run.RemanentPaise, &run.CreatedAt, &run.ExportedAt,
	)
	return run, err
}

// GetRun fetches a single run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id int64) (Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %d: %w", id, err)
	}
	return run, nil
}

// ListRecent returns the newest runs first, up to limit.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// ListPendingExport returns the oldest unexported runs, up to limit.
func (r *RunRepository) ListPendingExport(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE exported_at IS NULL ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// MarkExported stamps a run as exported now.
func (r *RunRepository) MarkExported(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET exported_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark run %d exported: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}
