package store

import (
	"fmt"
	"time"
)

const defaultRunLimit = 20

// Run 一次优化运行的记录
type Run struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"-"`
	Filename       string    `json:"filename"`
	Objective      string    `json:"objective"`
	MinersOnly     bool      `json:"minersOnly"`
	MaxShare       float64   `json:"maxShare"`
	Status         string    `json:"status"`
	ObjectiveValue float64   `json:"objectiveValue"`
	TotalCost      float64   `json:"totalCost"`
	TotalTons      float64   `json:"totalTons"`
	DurationMs     int64     `json:"durationMs"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InsertRun 写入运行记录，返回 id
func (s *Store) InsertRun(r Run) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO optimization_runs (
			session_id, filename, objective, miners_only, max_share, status,
			objective_value, total_cost, total_tons, duration_ms, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.SessionID, r.Filename, r.Objective, r.MinersOnly, r.MaxShare, r.Status,
		r.ObjectiveValue, r.TotalCost, r.TotalTons, r.DurationMs, r.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// ListRuns 会话最近的运行记录（新在前）
func (s *Store) ListRuns(sessionID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := s.db.Query(`
		SELECT id, filename, objective, miners_only, max_share, status,
			objective_value, total_cost, total_tons, duration_ms, error_message, created_at
		FROM optimization_runs
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r := Run{SessionID: sessionID}
		if err := rows.Scan(&r.ID, &r.Filename, &r.Objective, &r.MinersOnly, &r.MaxShare, &r.Status,
			&r.ObjectiveValue, &r.TotalCost, &r.TotalTons, &r.DurationMs, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
