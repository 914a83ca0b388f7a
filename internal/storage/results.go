package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SeamusWaldron/cubetimer"
)

// ResultRepository provides CRUD operations for recorded attempts.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// EnsureSession creates the named session if it does not exist.
func (r *ResultRepository) EnsureSession(ctx context.Context, session string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (name, created_at) VALUES (?, ?)
	`, session, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Insert stores a result in the named session. Re-inserting an existing
// id replaces the row, which is how a restored delete comes back.
func (r *ResultRepository) Insert(ctx context.Context, session string, res cubetimer.Result) error {
	var scramble *string
	if res.Scramble != "" {
		scramble = &res.Scramble
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results (result_id, session, raw_ms, penalty, scramble, recorded_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, res.ID, session, res.Raw.Millis(), res.Penalty.String(), scramble, res.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// UpdatePenalty changes the penalty of a stored result.
func (r *ResultRepository) UpdatePenalty(ctx context.Context, id string, p cubetimer.Penalty) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE results SET penalty = ? WHERE result_id = ?
	`, p.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update penalty: %w", err)
	}
	return expectOneRow(res, id)
}

// Delete removes a stored result.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM results WHERE result_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", cubetimer.ErrResultNotFound, id)
	}
	return nil
}

// Get retrieves a result by id.
func (r *ResultRepository) Get(ctx context.Context, id string) (cubetimer.Result, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT result_id, raw_ms, penalty, scramble, recorded_at_ms
		FROM results
		WHERE result_id = ?
	`, id)
	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return cubetimer.Result{}, fmt.Errorf("%w: %s", cubetimer.ErrResultNotFound, id)
	}
	return res, err
}

// List returns the results of a session in the order they were recorded.
func (r *ResultRepository) List(ctx context.Context, session string) ([]cubetimer.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT result_id, raw_ms, penalty, scramble, recorded_at_ms
		FROM results
		WHERE session = ?
		ORDER BY recorded_at_ms, rowid
	`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []cubetimer.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	Name      string
	CreatedAt time.Time
	Count     int
}

// Sessions lists stored sessions, oldest first.
func (r *ResultRepository) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, s.created_at, COUNT(r.result_id)
		FROM sessions s
		LEFT JOIN results r ON r.session = s.name
		GROUP BY s.name
		ORDER BY s.created_at, s.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var createdAt string
		if err := rows.Scan(&info.Name, &createdAt, &info.Count); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (cubetimer.Result, error) {
	var (
		res        cubetimer.Result
		rawMs      int64
		penalty    string
		scramble   sql.NullString
		recordedAt int64
	)
	if err := row.Scan(&res.ID, &rawMs, &penalty, &scramble, &recordedAt); err != nil {
		if err == sql.ErrNoRows {
			return res, err
		}
		return res, fmt.Errorf("failed to scan result: %w", err)
	}

	p, err := cubetimer.ParsePenalty(penalty)
	if err != nil {
		return res, err
	}
	res.Raw = cubetimer.Duration(rawMs)
	res.Penalty = p
	res.Scramble = scramble.String
	res.Timestamp = time.UnixMilli(recordedAt)
	return res, nil
}
