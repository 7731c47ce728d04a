// Package db provides PostgreSQL storage for validation runs, stage results and artifacts.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/brdocs/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema applies the pending migrations in order, one transaction each.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema version table: %w", err)
	}

	var current int
	if err := db.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM brdocs_schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO brdocs_schema_version (version) VALUES ($1)`, m.version)
			return err
		}); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
		log.Printf("[db] applied migration %d", m.version)
	}
	return nil
}

// SaveResult stores a finished run with its stage results and artifacts in one transaction
// and returns the run ID.
func (db *DB) SaveResult(ctx context.Context, input RunInput, result *types.PipelineResult) (uuid.UUID, error) {
	runID, err := parseRunID(result.RunID)
	if err != nil {
		return uuid.Nil, err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal pipeline result: %w", err)
	}
	rows, err := stageRows(result)
	if err != nil {
		return uuid.Nil, err
	}

	err = pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO validation_runs (id, document_path, document_hash, company_name, company_nip,
			        project_name, fiscal_year, level, overall_status, overall_score, total_iterations,
			        duration_ms, errors, started_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			runID, input.DocumentPath, input.DocumentHash, input.CompanyName, input.CompanyNIP,
			input.ProjectName, input.FiscalYear, result.Level, string(result.OverallStatus), result.OverallScore,
			result.TotalIterations, result.DurationMs, result.Errors, result.StartedAt,
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO stage_results (run_id, stage, iteration, status, score, issue_count,
				        critical_count, issues, corrections, metadata, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				runID, r.Stage, r.Iteration, r.Status, r.Score, r.IssueCount,
				r.CriticalCount, r.Issues, r.Corrections, r.Metadata, r.CreatedAt,
			)
		}
		batch.Queue(
			`INSERT INTO artifacts (run_id, name, content) VALUES ($1, $2, $3)`,
			runID, ArtifactPipelineResult, resultJSON,
		)
		batch.Queue(
			`INSERT INTO artifacts (run_id, name, text_content) VALUES ($1, $2, $3)`,
			runID, ArtifactFinalDocument, result.FinalDocument,
		)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert stage results: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Printf("[db] saved run %s (%d stage results)", runID, len(rows))
	return runID, nil
}

// GetRun retrieves a validation run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM validation_runs WHERE id = $1`,
		runID,
	).Scan(run.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRunsFiltered retrieves runs with optional filters, newest first
func (db *DB) ListRunsFiltered(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := buildRunQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(run.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListStageResults returns the stored stage results of a run in execution order
func (db *DB) ListStageResults(ctx context.Context, runID uuid.UUID) ([]types.StageResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT stage, iteration, status, score, issues, corrections, metadata, created_at
		 FROM stage_results WHERE run_id = $1 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage results: %w", err)
	}
	defer rows.Close()

	var results []types.StageResult
	for rows.Next() {
		var r types.StageResult
		var status string
		var issues, corrections, metadata []byte
		if err := rows.Scan(&r.Stage, &r.Iteration, &status, &r.Score, &issues, &corrections, &metadata, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan stage result: %w", err)
		}
		r.Status = types.Status(status)
		if err := unmarshalColumns(&r, issues, corrections, metadata); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetArtifact retrieves a JSON artifact by run ID and name
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, name string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM artifacts WHERE run_id = $1 AND name = $2`,
		runID, name,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", name, err)
	}
	return content, nil
}

// GetTextArtifact retrieves a text artifact by run ID and name
func (db *DB) GetTextArtifact(ctx context.Context, runID uuid.UUID, name string) (string, error) {
	var text *string
	err := db.pool.QueryRow(ctx,
		`SELECT text_content FROM artifacts WHERE run_id = $1 AND name = $2`,
		runID, name,
	).Scan(&text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get text artifact %s: %w", name, err)
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

// DeleteRun deletes a validation run and its stage results and artifacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM validation_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
