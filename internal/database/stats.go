package database

// GetStats returns row counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	counts := []struct {
		query string
		dest  *int
		args  []any
	}{
		{"SELECT COUNT(*) FROM files", &s.Files, nil},
		{"SELECT COUNT(*) FROM insights WHERE schema_version = ?", &s.Insights, []any{SchemaVersion}},
		{"SELECT COUNT(*) FROM insights WHERE schema_version != ?", &s.StaleInsight, []any{SchemaVersion}},
		{"SELECT COUNT(*) FROM runs", &s.Runs, nil},
		{"SELECT COUNT(*) FROM clusters", &s.Clusters, nil},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	moves, err := db.CountMovesByStatus()
	if err != nil {
		return nil, err
	}
	s.Moves = moves
	return s, nil
}
