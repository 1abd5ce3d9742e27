// Package store handles SQLite persistence of challenge results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// dateLayout has a fixed width so text ordering matches time ordering.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a result id does not exist.
var ErrNotFound = errors.New("result not found")

// Store wraps SQLite access for challenge results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// Saves run on background goroutines; one connection keeps writers serialized.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			total_score REAL NOT NULL,
			avg_time_to_reach_ms REAL NOT NULL,
			avg_stability REAL NOT NULL,
			avg_accuracy REAL NOT NULL,
			note_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS result_attempts (
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			target_note TEXT NOT NULL,
			pitch_class INTEGER NOT NULL,
			octave INTEGER NOT NULL,
			reached INTEGER NOT NULL,
			time_to_reach_ms INTEGER NOT NULL,
			stability REAL NOT NULL,
			accuracy REAL NOT NULL,
			avg_frequency REAL NOT NULL,
			cent_difference INTEGER,
			PRIMARY KEY (result_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_date ON results(date);`,
		`CREATE INDEX IF NOT EXISTS idx_result_attempts_pitch_class ON result_attempts(pitch_class);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveResult stores a completed result and its attempts, returning the new id.
func (s *Store) SaveResult(ctx context.Context, r model.ChallengeResult) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO results (date, total_score, avg_time_to_reach_ms, avg_stability, avg_accuracy, note_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Date.UTC().Format(dateLayout),
		r.TotalScore,
		r.AverageTimeToReach,
		r.AverageStability,
		r.AverageAccuracy,
		len(r.Attempts),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(r.Attempts) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO result_attempts (result_id, idx, target_note, pitch_class, octave, reached, time_to_reach_ms, stability, accuracy, avg_frequency, cent_difference)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, a := range r.Attempts {
			var cents sql.NullInt64
			if a.CentDifference != nil {
				cents = sql.NullInt64{Int64: int64(*a.CentDifference), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, i,
				a.TargetNote.String(), a.TargetNote.PitchClass, a.TargetNote.Octave,
				boolToInt(a.ReachedNote), a.TimeToReachMs, a.StabilityScore, a.AccuracyScore,
				a.AverageFrequency, cents); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListResults returns results with their attempts, oldest first, filtered by cfg.
func (s *Store) ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, cfg.Since.UTC().Format(dateLayout))
	}
	query := fmt.Sprintf(`SELECT id, date, total_score, avg_time_to_reach_ms, avg_stability, avg_accuracy
		FROM results
		WHERE %s
		ORDER BY date ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.ChallengeResult
	index := map[int64]int{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return results, nil
	}

	attempts, err := s.attemptsFor(ctx, resultIDs(results))
	if err != nil {
		return nil, err
	}
	for id, list := range attempts {
		if i, ok := index[id]; ok {
			results[i].Attempts = list
		}
	}
	return results, nil
}

// ListSummaries returns result rows without attempts, newest first.
func (s *Store) ListSummaries(ctx context.Context, limit int) ([]model.ResultSummary, error) {
	query := `SELECT id, date, total_score, avg_time_to_reach_ms, avg_stability, avg_accuracy, note_count
		FROM results
		ORDER BY date DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.ResultSummary
	for rows.Next() {
		var (
			sum  model.ResultSummary
			date string
		)
		if err := rows.Scan(&sum.ID, &date, &sum.TotalScore, &sum.AverageTimeToReach,
			&sum.AverageStability, &sum.AverageAccuracy, &sum.NoteCount); err != nil {
			return nil, err
		}
		if sum.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetResult returns one result by id. The boolean is false when it does not exist.
func (s *Store) GetResult(ctx context.Context, id int64) (model.ChallengeResult, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, total_score, avg_time_to_reach_ms, avg_stability, avg_accuracy
		 FROM results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ChallengeResult{}, false, nil
	}
	if err != nil {
		return model.ChallengeResult{}, false, err
	}
	attempts, err := s.attemptsFor(ctx, []int64{id})
	if err != nil {
		return model.ChallengeResult{}, false, err
	}
	r.Attempts = attempts[id]
	return r, true, nil
}

// DeleteResult removes a result and its attempts.
func (s *Store) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete result %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetWeakNotes aggregates attempts per pitch class over the most recent results.
func (s *Store) GetWeakNotes(ctx context.Context, window int) ([]model.NoteAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_results AS (
		SELECT id FROM results
		ORDER BY date DESC, id DESC
		LIMIT ?
	)
	SELECT a.pitch_class, COUNT(*), SUM(a.reached),
		SUM(CASE WHEN a.reached = 1 THEN a.time_to_reach_ms ELSE 0 END),
		SUM(a.stability), SUM(a.accuracy)
	FROM result_attempts a
	JOIN recent_results r ON r.id = a.result_id
	GROUP BY a.pitch_class`
	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanNoteAggregates(rows)
}

// ListNoteAggregatesForResults aggregates attempts per pitch class across results.
func (s *Store) ListNoteAggregatesForResults(ctx context.Context, resultIDs []int64) ([]model.NoteAggregate, error) {
	if len(resultIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(resultIDs)
	query := fmt.Sprintf(`SELECT pitch_class, COUNT(*), SUM(reached),
		SUM(CASE WHEN reached = 1 THEN time_to_reach_ms ELSE 0 END),
		SUM(stability), SUM(accuracy)
		FROM result_attempts
		WHERE result_id IN (%s)
		GROUP BY pitch_class`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanNoteAggregates(rows)
}

func (s *Store) attemptsFor(ctx context.Context, ids []int64) (map[int64][]model.NoteAttempt, error) {
	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`SELECT result_id, pitch_class, octave, reached, time_to_reach_ms, stability, accuracy, avg_frequency, cent_difference
		FROM result_attempts
		WHERE result_id IN (%s)
		ORDER BY result_id, idx`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	out := map[int64][]model.NoteAttempt{}
	for rows.Next() {
		var (
			resultID int64
			a        model.NoteAttempt
			reached  int
			cents    sql.NullInt64
		)
		if err := rows.Scan(&resultID, &a.TargetNote.PitchClass, &a.TargetNote.Octave, &reached,
			&a.TimeToReachMs, &a.StabilityScore, &a.AccuracyScore, &a.AverageFrequency, &cents); err != nil {
			return nil, err
		}
		a.ReachedNote = reached != 0
		if cents.Valid {
			c := int(cents.Int64)
			a.CentDifference = &c
		}
		out[resultID] = append(out[resultID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (model.ChallengeResult, error) {
	var r model.ChallengeResult
	var date string
	if err := row.Scan(&r.ID, &date, &r.TotalScore, &r.AverageTimeToReach, &r.AverageStability, &r.AverageAccuracy); err != nil {
		return model.ChallengeResult{}, err
	}
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return model.ChallengeResult{}, err
	}
	r.Date = parsed
	return r, nil
}

func scanNoteAggregates(rows *sql.Rows) ([]model.NoteAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.NoteAggregate
	for rows.Next() {
		var agg model.NoteAggregate
		if err := rows.Scan(&agg.PitchClass, &agg.Attempts, &agg.Reached, &agg.TimeSumMs, &agg.StabilitySum, &agg.AccuracySum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func resultIDs(results []model.ChallengeResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
