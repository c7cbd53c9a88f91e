package organize

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/contentaware/internal/database"
)

// UndoResult holds the results of reverting a run.
type UndoResult struct {
	Restored int
	Failed   int
}

// Undo moves every applied file of a run back to its source, newest move
// first. Files whose source path is occupied again are left alone.
func Undo(db *database.DB, runID string) (*UndoResult, error) {
	moves, err := db.GetMovesForRun(runID)
	if err != nil {
		return nil, err
	}

	r := &UndoResult{}
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if m.Status != database.MoveMoved {
			continue
		}

		if err := restore(m); err != nil {
			msg := err.Error()
			log.Printf("Undo %s failed: %v", m.Target, err)
			if err := db.UpdateMoveStatus(m.ID, database.MoveMoved, &msg); err != nil {
				log.Printf("Error recording undo %s: %v", m.Source, err)
			}
			r.Failed++
			continue
		}

		if err := db.UpdateMoveStatus(m.ID, database.MoveUndone, nil); err != nil {
			log.Printf("Error recording undo %s: %v", m.Source, err)
		}
		if err := db.RenameFile(m.Target, m.Source); err != nil {
			log.Printf("Error updating file index for %s: %v", m.Source, err)
		}
		r.Restored++
		log.Printf("Restored: %s", m.Source)
	}

	log.Printf("Undo complete: %d restored, %d failed", r.Restored, r.Failed)
	return r, nil
}

func restore(m database.Move) error {
	if _, err := os.Lstat(m.Target); err != nil {
		return fmt.Errorf("moved file missing: %w", ErrSourceMissing)
	}
	if _, err := os.Lstat(m.Source); err == nil {
		return fmt.Errorf("original path %s is occupied", m.Source)
	}
	if err := os.MkdirAll(filepath.Dir(m.Source), 0o755); err != nil {
		return err
	}
	if err := moveFile(m.Target, m.Source); err != nil {
		return err
	}
	removeEmptyParents(filepath.Dir(m.Target))
	return nil
}

// removeEmptyParents prunes category folders left empty by an undo. It
// stops at the first non-empty directory.
func removeEmptyParents(dir string) {
	for i := 0; i < 2; i++ {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
