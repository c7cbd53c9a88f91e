package database

import "database/sql"

// InsertMove records a move with the given status and returns its ID.
func (db *DB) InsertMove(runID, source, target, contentHash, status string, errMsg *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO moves (run_id, source, target, content_hash, status, error) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, source, target, contentHash, status, errMsg,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateMoveStatus changes the status of a move.
func (db *DB) UpdateMoveStatus(id int64, status string, errMsg *string) error {
	_, err := db.conn.Exec(
		"UPDATE moves SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?",
		status, errMsg, id,
	)
	return err
}

// CompleteMove marks a move as done at target, which may differ from the
// planned target when it was re-resolved at apply time.
func (db *DB) CompleteMove(id int64, target string) error {
	_, err := db.conn.Exec(
		"UPDATE moves SET status = ?, target = ?, error = NULL, updated_at = datetime('now') WHERE id = ?",
		MoveMoved, target, id,
	)
	return err
}

// ClearPendingMoves deletes a run's planned, skipped and failed moves so a
// new plan can be logged. Moved and undone entries are history and stay.
func (db *DB) ClearPendingMoves(runID string) (int64, error) {
	result, err := db.conn.Exec(
		"DELETE FROM moves WHERE run_id = ? AND status IN (?, ?, ?)",
		runID, MovePlanned, MoveSkipped, MoveFailed,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetMovesForRun returns a run's moves in insertion order.
func (db *DB) GetMovesForRun(runID string) ([]Move, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, source, target, content_hash, status, error, created_at, updated_at
		FROM moves WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var m Move
		var hash sql.NullString
		if err := rows.Scan(&m.ID, &m.RunID, &m.Source, &m.Target, &hash, &m.Status, &m.Error, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.ContentHash = hash.String
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

// CountMovesByStatus returns the number of moves per status across all runs.
func (db *DB) CountMovesByStatus() (map[string]int, error) {
	rows, err := db.conn.Query("SELECT status, COUNT(*) FROM moves GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
