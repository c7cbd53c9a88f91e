package organize

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/contentaware/internal/database"
)

// Result holds the results of executing a plan.
type Result struct {
	Planned    int
	Moved      int
	Skipped    int
	Failed     int
	Kept       int
	DryRun     bool
	BackupPath string
}

// Organizer executes plans and records them in the move log.
type Organizer struct {
	db   *database.DB
	opts Options
}

// NewOrganizer creates an organizer.
func NewOrganizer(db *database.DB, opts Options) *Organizer {
	return &Organizer{db: db, opts: opts}
}

// Execute logs every move of the plan and, when Apply is set, performs
// them. A failed move is recorded and does not stop the run. The CSV backup
// is written even for dry runs so the proposal can be reviewed.
func (o *Organizer) Execute(plan *Plan) (*Result, error) {
	r := &Result{DryRun: !o.opts.Apply, Kept: len(plan.Kept)}
	var records []backupRecord

	// Moves already performed stay as undo history; anything else is replaced by this plan.
	if _, err := o.db.ClearPendingMoves(plan.RunID); err != nil {
		return nil, fmt.Errorf("clearing previous plan: %w", err)
	}

	for _, m := range plan.Moves {
		if m.Reason != nil {
			r.Skipped++
			reason := m.Reason.Error()
			if _, err := o.db.InsertMove(plan.RunID, m.Source, m.Target, m.ContentHash, database.MoveSkipped, &reason); err != nil {
				return nil, fmt.Errorf("logging move: %w", err)
			}
			records = append(records, backupRecord{m.Source, m.Target, database.MoveSkipped, reason})
			continue
		}

		r.Planned++
		id, err := o.db.InsertMove(plan.RunID, m.Source, m.Target, m.ContentHash, database.MovePlanned, nil)
		if err != nil {
			return nil, fmt.Errorf("logging move: %w", err)
		}

		if !o.opts.Apply {
			records = append(records, backupRecord{m.Source, m.Target, database.MovePlanned, ""})
			continue
		}

		target, err := o.apply(m)
		if err != nil {
			msg := err.Error()
			status := database.MoveFailed
			if errors.Is(err, ErrSourceMissing) || errors.Is(err, ErrSameFile) || errors.Is(err, ErrDuplicate) {
				status = database.MoveSkipped
				r.Skipped++
			} else {
				r.Failed++
			}
			log.Printf("Move %s failed: %v", m.Source, err)
			if err := o.db.UpdateMoveStatus(id, status, &msg); err != nil {
				log.Printf("Error recording move %s: %v", m.Source, err)
			}
			records = append(records, backupRecord{m.Source, m.Target, status, msg})
			continue
		}

		r.Moved++
		if err := o.db.CompleteMove(id, target); err != nil {
			log.Printf("Error recording move %s: %v", m.Source, err)
		}
		if err := o.db.RenameFile(m.Source, target); err != nil {
			log.Printf("Error updating file index for %s: %v", m.Source, err)
		}
		records = append(records, backupRecord{m.Source, target, database.MoveMoved, ""})
		log.Printf("Moved: %s -> %s", m.Source, target)
	}

	if o.opts.BackupDir != "" && len(records) > 0 {
		path, err := writeBackup(o.opts.BackupDir, plan.RunID, records)
		if err != nil {
			log.Printf("Error writing move backup: %v", err)
		} else {
			r.BackupPath = path
		}
	}

	mode := "applied"
	if r.DryRun {
		mode = "dry run"
	}
	log.Printf("Organize complete (%s): %d planned, %d moved, %d skipped, %d failed, %d kept in place",
		mode, r.Planned, r.Moved, r.Skipped, r.Failed, r.Kept)
	return r, nil
}

// apply moves one file. The target is re-resolved because the filesystem
// may have changed since planning.
func (o *Organizer) apply(m PlannedMove) (string, error) {
	if _, err := os.Lstat(m.Source); err != nil {
		if os.IsNotExist(err) {
			return "", ErrSourceMissing
		}
		return "", err
	}

	target, err := resolveTarget(filepath.Dir(m.Target), m.Source, m.ContentHash, nil)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := moveFile(m.Source, target); err != nil {
		return "", err
	}
	return target, nil
}

// moveFile renames src to dst, falling back to copy and remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	os.Chtimes(dst, info.ModTime(), info.ModTime())
	return os.Remove(src)
}
