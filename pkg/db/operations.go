package db

import (
	"fmt"
	"time"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

// Run represents one recorded normalization run.
type Run struct {
	RunID          int64
	CreatedAt      time.Time
	InputPath      string
	OutputPath     string
	RowCount       int
	EnrichedCount  int
	HeuristicCount int
}

// Lead is a persisted lead row with its provenance keys.
type Lead struct {
	LeadID int64
	RunID  int64
	models.LeadRecord
}

// InsertRun records a completed run, returning the run_id.
func (db *DB) InsertRun(inputPath, outputPath string, rowCount, enrichedCount, heuristicCount int) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (input_path, output_path, row_count, enriched_count, heuristic_count)
		VALUES (?, ?, ?, ?, ?)
	`, inputPath, outputPath, rowCount, enrichedCount, heuristicCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// InsertLeads stores every record under one run in a single transaction.
func (db *DB) InsertLeads(runID int64, records []models.LeadRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO leads (run_id, nombre, email, telefono, renta, proyecto, observacion)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare lead insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(runID, r.Name, r.Email, r.Phone, r.Income, r.Project, r.Note); err != nil {
			return fmt.Errorf("failed to insert lead %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leads: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT run_id, created_at, input_path, output_path, row_count, enriched_count, heuristic_count
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.InputPath, &r.OutputPath,
			&r.RowCount, &r.EnrichedCount, &r.HeuristicCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunByID fetches one run.
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, created_at, input_path, output_path, row_count, enriched_count, heuristic_count
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.CreatedAt, &r.InputPath, &r.OutputPath,
		&r.RowCount, &r.EnrichedCount, &r.HeuristicCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	return &r, nil
}

// ListLeads returns leads, optionally restricted to one run (runID > 0),
// newest first.
func (db *DB) ListLeads(runID int64, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT lead_id, run_id, nombre, email, telefono, renta, proyecto, observacion
		FROM leads
	`
	args := []interface{}{}
	if runID > 0 {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY lead_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.LeadID, &l.RunID, &l.Name, &l.Email, &l.Phone,
			&l.Income, &l.Project, &l.Note); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// CountLeads returns the total number of stored leads.
func (db *DB) CountLeads() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM leads").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}
