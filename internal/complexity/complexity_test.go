package complexity

import (
	"strings"
	"testing"
)

func TestPythonExample(t *testing.T) {
	content := "def foo():\n    pass\nclass Bar:\n    pass\n"
	r := Analyze("python", content)

	if r.Functions != 1 || r.Classes != 1 {
		t.Fatalf("expected functions=1 classes=1, got %d/%d", r.Functions, r.Classes)
	}
	if r.Score != 0.3 {
		t.Errorf("expected score 0.3, got %v", r.Score)
	}
	if r.Scorer != ScorerStructure {
		t.Errorf("expected structure scorer, got %q", r.Scorer)
	}
	if !contains(r.Patterns, "object_oriented") {
		t.Errorf("expected object_oriented pattern, got %v", r.Patterns)
	}
	if r.Lines != 4 {
		t.Errorf("expected 4 lines, got %d", r.Lines)
	}
}

func TestPythonFunctionalPattern(t *testing.T) {
	r := Analyze("python", "import argparse\n\nasync def main():\n    await run()\n")
	if r.Functions != 1 || r.Classes != 0 {
		t.Fatalf("expected 1 function, got %d/%d", r.Functions, r.Classes)
	}
	for _, p := range []string{"functional", "async", "cli"} {
		if !contains(r.Patterns, p) {
			t.Errorf("expected pattern %q in %v", p, r.Patterns)
		}
	}
}

func TestStructureScoreClamps(t *testing.T) {
	if got := StructureScore(50, 50); got != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", got)
	}
	if got := StructureScore(0, 0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestLineScoreMonotonicClamp(t *testing.T) {
	if LineScore(500) != 0.5 {
		t.Errorf("expected 0.5, got %v", LineScore(500))
	}
	capped := LineScore(1000)
	if capped != 1.0 {
		t.Fatalf("expected 1.0 at cap, got %v", capped)
	}
	for _, n := range []int{2000, 4000, 1 << 20} {
		if LineScore(n) != capped {
			t.Errorf("lines=%d changed score beyond cap: %v", n, LineScore(n))
		}
	}
}

func TestAnalyzeTextUsesLines(t *testing.T) {
	content := strings.Repeat("a line of prose\n", 250)
	r := Analyze("markdown", content)
	if r.Scorer != ScorerLines {
		t.Errorf("expected lines scorer, got %q", r.Scorer)
	}
	if r.Score != 0.25 {
		t.Errorf("expected 0.25, got %v", r.Score)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze("unknown", "")
	if r.Score != 0 || r.Lines != 0 {
		t.Errorf("expected zero report, got %+v", r)
	}
}

func TestAnalyzeGo(t *testing.T) {
	src := `package main

import "fmt"

type Store struct{}

type Reader interface{ Read() }

func (s *Store) Get() {}

func main() {
	go func() { fmt.Println("hi") }()
}
`
	r := Analyze("go", src)
	if r.Scorer != ScorerGoAST {
		t.Fatalf("expected go_ast scorer, got %q", r.Scorer)
	}
	if r.Functions != 2 || r.Classes != 2 {
		t.Errorf("expected 2 functions and 2 types, got %d/%d", r.Functions, r.Classes)
	}
	if r.Score != StructureScore(2, 2) {
		t.Errorf("unexpected score %v", r.Score)
	}
	if !contains(r.Patterns, "entry_point") || !contains(r.Patterns, "async") {
		t.Errorf("expected entry_point and async patterns, got %v", r.Patterns)
	}
}

func TestAnalyzeGoInvalidFallsBackToLines(t *testing.T) {
	r := Analyze("go", "this is not go {{{")
	if r.Scorer != ScorerLines {
		t.Errorf("expected lines fallback, got %q", r.Scorer)
	}
}

func TestAnalyzeTable(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("a,b,c,d\n")
	for i := 0; i < 99; i++ {
		sb.WriteString("1,2,3,4\n")
	}
	r := AnalyzeTable(sb.String(), ',')
	if r.Rows != 100 || r.Cols != 4 {
		t.Fatalf("expected 100x4, got %dx%d", r.Rows, r.Cols)
	}
	if r.Score != 0.04 {
		t.Errorf("expected 0.04, got %v", r.Score)
	}
}

func TestAnalyzeTableClamps(t *testing.T) {
	row := strings.Repeat("x\t", 199) + "x\n"
	r := AnalyzeTable(strings.Repeat(row, 100), '\t')
	if r.Cols != 200 {
		t.Fatalf("expected 200 cols, got %d", r.Cols)
	}
	if r.Score != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", r.Score)
	}
}

func TestAnalyzeTableRaggedRows(t *testing.T) {
	r := AnalyzeTable("a,b\n1,2,3\n4\n", ',')
	if r.Rows != 3 || r.Cols != 3 {
		t.Errorf("expected 3 rows and 3 cols, got %d/%d", r.Rows, r.Cols)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
