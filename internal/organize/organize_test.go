package organize

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/extract"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture writes files under a fresh root and returns analyses for them.
type fixture struct {
	root     string
	analyses []database.FileAnalysis
}

func newFixture(t *testing.T) *fixture {
	return &fixture{root: t.TempDir()}
}

func (f *fixture) add(t *testing.T, rel, content, contentType string, confidence float64) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	kind := extract.KindText
	lang := "unknown"
	if strings.HasSuffix(rel, ".py") {
		kind, lang = extract.KindCode, "python"
	}
	f.analyses = append(f.analyses, database.FileAnalysis{
		SchemaVersion: database.SchemaVersion,
		Path:          path,
		RelPath:       rel,
		ContentHash:   analyze.HashBytes([]byte(content)),
		Kind:          kind,
		Language:      lang,
		ContentType:   contentType,
		Confidence:    confidence,
	})
	return path
}

func (f *fixture) run(t *testing.T, db *database.DB) string {
	t.Helper()
	run, err := db.StartRun(f.root)
	require.NoError(t, err)
	for i := range f.analyses {
		require.NoError(t, db.UpsertFile(run, &f.analyses[i]))
	}
	return run
}

func TestBuildPlanTargets(t *testing.T) {
	f := newFixture(t)
	f.add(t, "misc/chat.py", "import openai", "ai_ml", 0.5)
	f.add(t, "misc/invoice.txt", "invoice", "finance", 0.4)
	f.add(t, "misc/random.txt", "hmm", "general", 0.0)

	dest := filepath.Join(t.TempDir(), "sorted")
	plan := BuildPlan("run", f.root, f.analyses, Options{Destination: dest, MinConfidence: 0.3, LanguageSubdirs: true})

	require.Len(t, plan.Moves, 2)
	assert.Equal(t, filepath.Join(dest, "ai_ml", "python", "chat.py"), plan.Moves[0].Target)
	assert.Equal(t, filepath.Join(dest, "finance", "invoice.txt"), plan.Moves[1].Target)
	require.Len(t, plan.Kept, 1)
	assert.Equal(t, "general", plan.Kept[0].ContentType)
	assert.Equal(t, map[string]int{"ai_ml": 1, "finance": 1}, plan.Categories())
}

func TestBuildPlanWithoutLanguageSubdirs(t *testing.T) {
	f := newFixture(t)
	f.add(t, "chat.py", "import openai", "ai_ml", 0.5)

	plan := BuildPlan("run", f.root, f.analyses, Options{})
	assert.Equal(t, filepath.Join(f.root, "ai_ml", "chat.py"), plan.Moves[0].Target)
}

func TestBuildPlanCollisionSuffix(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a/notes.txt", "invoice one", "finance", 0.5)
	f.add(t, "b/notes.txt", "invoice two", "finance", 0.5)
	existing := filepath.Join(f.root, "finance", "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("different"), 0o644))

	plan := BuildPlan("run", f.root, f.analyses, Options{})
	require.Len(t, plan.Moves, 2)
	assert.Equal(t, filepath.Join(f.root, "finance", "notes_1.txt"), plan.Moves[0].Target)
	assert.Equal(t, filepath.Join(f.root, "finance", "notes_2.txt"), plan.Moves[1].Target)
}

func TestBuildPlanDuplicateAndInPlace(t *testing.T) {
	f := newFixture(t)
	f.add(t, "finance/invoice.txt", "invoice", "finance", 0.5)
	f.add(t, "inbox/invoice.txt", "invoice", "finance", 0.5)

	plan := BuildPlan("run", f.root, f.analyses, Options{})
	require.Len(t, plan.Moves, 2)
	assert.True(t, errors.Is(plan.Moves[0].Reason, ErrSameFile))
	assert.True(t, errors.Is(plan.Moves[1].Reason, ErrDuplicate))
	assert.Empty(t, plan.Actionable())
}

func TestDryRunMovesNothing(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	src := f.add(t, "chat.txt", "openai prompt", "ai_ml", 0.5)
	run := f.run(t, db)
	backups := filepath.Join(t.TempDir(), "backups")

	plan := BuildPlan(run, f.root, f.analyses, Options{})
	result, err := NewOrganizer(db, Options{BackupDir: backups}).Execute(plan)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Planned)
	assert.Equal(t, 0, result.Moved)
	assert.FileExists(t, src)
	assert.NoFileExists(t, filepath.Join(f.root, "ai_ml", "chat.txt"))

	moves, _ := db.GetMovesForRun(run)
	require.Len(t, moves, 1)
	assert.Equal(t, database.MovePlanned, moves[0].Status)
	assert.Equal(t, BackupPath(backups, run), result.BackupPath)
}

func TestApplyMovesAndLogs(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	src := f.add(t, "inbox/chat.py", "import openai", "ai_ml", 0.5)
	run := f.run(t, db)
	backups := t.TempDir()

	opts := Options{LanguageSubdirs: true, Apply: true, BackupDir: backups}
	plan := BuildPlan(run, f.root, f.analyses, opts)
	result, err := NewOrganizer(db, opts).Execute(plan)
	require.NoError(t, err)

	target := filepath.Join(f.root, "ai_ml", "python", "chat.py")
	assert.Equal(t, 1, result.Moved)
	assert.NoFileExists(t, src)
	assert.FileExists(t, target)

	moves, _ := db.GetMovesForRun(run)
	require.Len(t, moves, 1)
	assert.Equal(t, database.MoveMoved, moves[0].Status)

	rec, _ := db.GetFile(target)
	assert.NotNil(t, rec, "file index follows the move")

	fh, err := os.Open(result.BackupPath)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"source", "target", "status", "error"}, rows[0])
	assert.Equal(t, []string{src, target, "moved", ""}, rows[1])
}

func TestApplyContinuesAfterMissingSource(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	gone := f.add(t, "a.txt", "invoice", "finance", 0.5)
	kept := f.add(t, "b.txt", "story", "creative_writing", 0.5)
	run := f.run(t, db)
	require.NoError(t, os.Remove(gone))

	opts := Options{Apply: true}
	result, err := NewOrganizer(db, opts).Execute(BuildPlan(run, f.root, f.analyses, opts))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Moved)
	assert.Equal(t, 1, result.Skipped)
	assert.NoFileExists(t, kept)

	moves, _ := db.GetMovesForRun(run)
	require.Len(t, moves, 2)
	assert.Equal(t, database.MoveSkipped, moves[0].Status)
	require.NotNil(t, moves[0].Error)
	assert.Contains(t, *moves[0].Error, ErrSourceMissing.Error())
}

func TestUndoRestoresFiles(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	a := f.add(t, "inbox/a.txt", "invoice", "finance", 0.5)
	b := f.add(t, "inbox/b.txt", "story", "creative_writing", 0.5)
	run := f.run(t, db)

	opts := Options{Apply: true}
	_, err := NewOrganizer(db, opts).Execute(BuildPlan(run, f.root, f.analyses, opts))
	require.NoError(t, err)
	assert.NoFileExists(t, a)

	result, err := Undo(db, run)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Restored)
	assert.Equal(t, 0, result.Failed)
	assert.FileExists(t, a)
	assert.FileExists(t, b)
	assert.NoDirExists(t, filepath.Join(f.root, "finance"))

	moves, _ := db.GetMovesForRun(run)
	for _, m := range moves {
		assert.Equal(t, database.MoveUndone, m.Status)
	}

	// A second undo has nothing left to do.
	again, err := Undo(db, run)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Restored)
}

func TestUndoSkipsOccupiedSource(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	a := f.add(t, "a.txt", "invoice", "finance", 0.5)
	run := f.run(t, db)

	opts := Options{Apply: true}
	_, err := NewOrganizer(db, opts).Execute(BuildPlan(run, f.root, f.analyses, opts))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(a, []byte("new file"), 0o644))

	result, err := Undo(db, run)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.FileExists(t, filepath.Join(f.root, "finance", "a.txt"))
}

func TestExecuteReplacesEarlierPlan(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	f.add(t, "a.txt", "invoice", "finance", 0.5)
	f.add(t, "b.txt", "story", "creative_writing", 0.5)
	run := f.run(t, db)

	o := NewOrganizer(db, Options{})
	for i := 0; i < 3; i++ {
		_, err := o.Execute(BuildPlan(run, f.root, f.analyses, Options{}))
		require.NoError(t, err)
	}

	moves, err := db.GetMovesForRun(run)
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestApplyRecordsResolvedTarget(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t)
	// The file already sitting in ai_ml/ leaves, so x.py lands on its bare name
	// rather than the suffixed name the plan reserved.
	inner := f.add(t, "ai_ml/x.py", "from flask import Flask", "web_development", 0.5)
	outer := f.add(t, "x.py", "import torch", "ai_ml", 0.5)
	run := f.run(t, db)

	opts := Options{Apply: true}
	plan := BuildPlan(run, f.root, f.analyses, opts)
	require.Len(t, plan.Moves, 2)
	assert.Equal(t, filepath.Join(f.root, "ai_ml", "x_1.py"), plan.Moves[1].Target)

	result, err := NewOrganizer(db, opts).Execute(plan)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Moved)

	moved := filepath.Join(f.root, "ai_ml", "x.py")
	moves, err := db.GetMovesForRun(run)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, filepath.Join(f.root, "web_development", "x.py"), moves[0].Target)
	assert.Equal(t, moved, moves[1].Target)
	assert.Equal(t, database.MoveMoved, moves[1].Status)

	undo, err := Undo(db, run)
	require.NoError(t, err)
	assert.Equal(t, 2, undo.Restored)
	assert.Equal(t, 0, undo.Failed)

	got, err := os.ReadFile(outer)
	require.NoError(t, err)
	assert.Equal(t, "import torch", string(got))
	got, err = os.ReadFile(inner)
	require.NoError(t, err)
	assert.Equal(t, "from flask import Flask", string(got))
}

func TestNavigation(t *testing.T) {
	f := newFixture(t)
	f.add(t, "x/chat.txt", "openai", "ai_ml", 0.5)
	f.add(t, "x/unsure.txt", "hmm", "general", 0.1)

	plan := BuildPlan("run", f.root, f.analyses, Options{MinConfidence: 0.3})
	md := Navigation(plan, time.Date(2026, 2, 6, 9, 30, 0, 0, time.UTC))

	assert.Contains(t, md, "# Content Organization")
	assert.Contains(t, md, "2026-02-06 09:30")
	assert.Contains(t, md, "- Files to organize: 1")
	assert.Contains(t, md, "## ai_ml")
	assert.Contains(t, md, "`x/chat.txt` → `ai_ml/chat.txt` (50%)")
	assert.Contains(t, md, "## Unsorted")
	assert.Contains(t, md, "`x/unsure.txt` (general, 10%)")

	path, err := WriteNavigation(plan, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NavigationFile, filepath.Base(path))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a_b", sanitize("a/b"))
	assert.Equal(t, "general", sanitize(".."))
	assert.Equal(t, "general", sanitize(" "))
}
