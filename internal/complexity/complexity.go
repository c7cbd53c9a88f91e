// Package complexity produces bounded, informational complexity estimates.
// Scores from different scorers share the [0,1] range but are not
// comparable with each other.
package complexity

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"
)

// Scorer names recorded in Report.Scorer.
const (
	ScorerLines     = "lines"
	ScorerStructure = "structure"
	ScorerGoAST     = "go_ast"
	ScorerTabular   = "tabular"
)

// Report is the outcome of scoring one file.
type Report struct {
	Scorer    string
	Score     float64
	Lines     int
	Functions int
	Classes   int
	Rows      int
	Cols      int
	Patterns  []string
}

// LineScore is min(lines/1000, 1).
func LineScore(lines int) float64 {
	return clamp(float64(lines) / 1000)
}

// StructureScore is min(functions*0.1 + classes*0.2, 1), computed in
// tenths so that small counts give exact decimal scores.
func StructureScore(functions, classes int) float64 {
	return clamp(float64(functions+2*classes) / 10)
}

// TabularScore is min(rows*cols/10000, 1).
func TabularScore(rows, cols int) float64 {
	return clamp(float64(rows) * float64(cols) / 10000)
}

type structureRule struct {
	functions *regexp.Regexp
	classes   *regexp.Regexp
}

var structureRules = map[string]structureRule{
	"python": {
		functions: regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+\w+\s*\(`),
		classes:   regexp.MustCompile(`(?m)^\s*class\s+\w+`),
	},
	"javascript": {
		functions: regexp.MustCompile(`(?m)\bfunction\s*\*?\s*\w*\s*\(|^\s*(?:const|let|var)\s+\w+\s*=\s*(?:async\s*)?\([^)]*\)\s*=>`),
		classes:   regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+\w+`),
	},
	"ruby": {
		functions: regexp.MustCompile(`(?m)^\s*def\s+\w+`),
		classes:   regexp.MustCompile(`(?m)^\s*(?:class|module)\s+[A-Z]\w*`),
	},
	"java": {
		functions: regexp.MustCompile(`(?m)^\s*(?:public|private|protected|static|final|\s)+[\w<>\[\]]+\s+\w+\s*\([^;]*$`),
		classes:   regexp.MustCompile(`(?m)^\s*(?:public\s+|abstract\s+|final\s+)*(?:class|interface|enum)\s+\w+`),
	},
	"shell": {
		functions: regexp.MustCompile(`(?m)^\s*(?:function\s+)?\w+\s*\(\)\s*\{`),
	},
	"rust": {
		functions: regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+\w+`),
		classes:   regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:struct|enum|trait)\s+\w+`),
	},
}

func init() {
	structureRules["typescript"] = structureRules["javascript"]
	structureRules["kotlin"] = structureRules["java"]
	structureRules["csharp"] = structureRules["java"]
}

var patternMarkers = map[string][]string{
	"async":           {"async ", "await ", "asyncio", "go func", "promise"},
	"cli":             {"argparse", "click.", "sys.argv", "os.args", "cobra.", "flag.parse", "process.argv"},
	"api_client":      {"requests.", "httpx", "http.get", "http.newrequest", "fetch(", "axios", "resty", "urllib"},
	"data_processing": {"pandas", "encoding/csv", "csv.reader", "json.load", "dataframe", "numpy"},
	"testing":         {"unittest", "pytest", "testing.t", "describe(", "assert "},
	"entry_point":     {"if __name__ == \"__main__\"", "if __name__ == '__main__'", "func main()"},
	"file_io":         {"open(", "os.open", "os.readfile", "shutil", "pathlib", "rglob"},
}

// Analyze scores source or text content. Code in a language with a
// structure rule (or Go) gets a structure score; everything else falls back
// to the line scorer. Tabular data is handled by AnalyzeTable.
func Analyze(lang, content string) Report {
	r := Report{Lines: countLines(content)}

	switch {
	case lang == "go":
		if fn, types, ok := goStructure(content); ok {
			r.Scorer = ScorerGoAST
			r.Functions, r.Classes = fn, types
			r.Score = StructureScore(fn, types)
			break
		}
		r.Scorer = ScorerLines
		r.Score = LineScore(r.Lines)
	case structureRules[lang].functions != nil:
		rule := structureRules[lang]
		r.Scorer = ScorerStructure
		r.Functions = len(rule.functions.FindAllStringIndex(content, -1))
		if rule.classes != nil {
			r.Classes = len(rule.classes.FindAllStringIndex(content, -1))
		}
		r.Score = StructureScore(r.Functions, r.Classes)
	default:
		r.Scorer = ScorerLines
		r.Score = LineScore(r.Lines)
	}

	r.Patterns = detectPatterns(content, r.Functions, r.Classes)
	return r
}

func goStructure(content string) (functions, types int, ok bool) {
	file, err := parser.ParseFile(token.NewFileSet(), "", content, parser.SkipObjectResolution)
	if err != nil {
		return 0, 0, false
	}
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			functions++
		case *ast.TypeSpec:
			switch node.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				types++
			}
		}
		return true
	})
	return functions, types, true
}

func detectPatterns(content string, functions, classes int) []string {
	var patterns []string
	if classes > 0 {
		patterns = append(patterns, "object_oriented")
	} else if functions > 0 {
		patterns = append(patterns, "functional")
	}

	lc := strings.ToLower(content)
	for name, markers := range patternMarkers {
		for _, m := range markers {
			if strings.Contains(lc, strings.ToLower(m)) {
				patterns = append(patterns, name)
				break
			}
		}
	}
	sort.Strings(patterns)
	return patterns
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
