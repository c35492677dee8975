package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"directory-scraper/models"

	"github.com/google/uuid"
)

// Run statuses
const (
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Run is one stored crawl
type Run struct {
	ID         uuid.UUID
	StartURL   string
	Status     string
	Stats      RunStats
	LastError  sql.NullString
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// RunStats are the counters of a finished crawl
type RunStats struct {
	Pages    int
	Links    int
	Filtered int
	Failed   int
	Records  int
}

// CreateRun records the start of a crawl
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, startURL string) (*Run, error) {
	run := Run{ID: runID, StartURL: startURL, Status: StatusInProgress}
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO crawl_runs (id, start_url, status)
		VALUES ($1, $2, $3)
		RETURNING started_at
	`, run.ID, run.StartURL, run.Status).Scan(&run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// SaveRecords stores records of a run in order, in one transaction
func (db *DB) SaveRecords(ctx context.Context, runID uuid.UUID, records []models.Record) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, position, text, url, description, homepage_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		homepage := sql.NullString{}
		if record.HomepageURL != nil {
			homepage = sql.NullString{String: *record.HomepageURL, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, i, record.Text, record.URL, record.Description, homepage); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of a run. A non-nil
// crawlErr marks the run failed.
func (db *DB) FinishRun(ctx context.Context, runID uuid.UUID, stats RunStats, crawlErr error) error {
	status := StatusDone
	lastError := sql.NullString{}
	if crawlErr != nil {
		status = StatusFailed
		lastError = sql.NullString{String: crawlErr.Error(), Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		UPDATE crawl_runs
		SET status = $1, pages_count = $2, links_count = $3, filtered_count = $4,
			failed_count = $5, records_count = $6, last_error = $7, finished_at = CURRENT_TIMESTAMP
		WHERE id = $8
	`, status, stats.Pages, stats.Links, stats.Filtered, stats.Failed, stats.Records, lastError, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun loads a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, start_url, status, pages_count, links_count, filtered_count, failed_count,
			records_count, last_error, started_at, finished_at
		FROM crawl_runs
		WHERE id = $1
	`, runID).Scan(
		&run.ID, &run.StartURL, &run.Status, &run.Stats.Pages, &run.Stats.Links, &run.Stats.Filtered,
		&run.Stats.Failed, &run.Stats.Records, &run.LastError, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &run, nil
}

// GetRecords loads the records of a run in crawl order
func (db *DB) GetRecords(ctx context.Context, runID uuid.UUID) ([]models.Record, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT text, url, description, homepage_url
		FROM records
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			record   models.Record
			homepage sql.NullString
		)
		if err := rows.Scan(&record.Text, &record.URL, &record.Description, &homepage); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if homepage.Valid {
			record.HomepageURL = &homepage.String
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
