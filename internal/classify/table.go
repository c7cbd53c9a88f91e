package classify

import (
	"regexp"
	"sort"
	"strings"
)

// General is returned when no category in a table matches at all.
const General = "general"

// Rule is one category of a keyword table.
type Rule struct {
	Name      string
	Keywords  []string
	Patterns  []*regexp.Regexp
	Threshold float64
}

func (r Rule) total() int {
	return len(r.Keywords) + len(r.Patterns)
}

// Table is an ordered set of category rules.
type Table []Rule

// Score is the evaluation of one rule against a document.
type Score struct {
	Category   string
	Raw        float64
	Confidence float64
	Matched    []string
}

// Result is the outcome of classifying a document against a table.
type Result struct {
	Category   string
	Confidence float64
	// Confident is true when the winning category met its threshold.
	Confident bool
	Matched   []string
}

// Categories returns the category names in table order.
func (t Table) Categories() []string {
	names := make([]string, len(t))
	for i, r := range t {
		names[i] = r.Name
	}
	return names
}

// Has reports whether name is a category of the table or General.
func (t Table) Has(name string) bool {
	if name == General {
		return true
	}
	for _, r := range t {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Scores evaluates every rule. Content hits add 1 per occurrence, path hits
// add 2. The result is ordered by raw score descending, then name ascending.
func (t Table) Scores(content, path string) []Score {
	lc := strings.ToLower(content)
	lp := strings.ToLower(path)

	scores := make([]Score, 0, len(t))
	for _, r := range t {
		s := Score{Category: r.Name}
		for _, kw := range r.Keywords {
			kw = strings.ToLower(kw)
			hits := float64(strings.Count(lc, kw)) + 2*float64(strings.Count(lp, kw))
			if hits > 0 {
				s.Raw += hits
				s.Matched = append(s.Matched, kw)
			}
		}
		for _, re := range r.Patterns {
			hits := float64(len(re.FindAllStringIndex(content, -1))) + 2*float64(len(re.FindAllStringIndex(path, -1)))
			if hits > 0 {
				s.Raw += hits
				s.Matched = append(s.Matched, re.String())
			}
		}
		if total := r.total(); total > 0 {
			s.Confidence = clamp01(float64(len(s.Matched)) / float64(total))
		}
		sort.Strings(s.Matched)
		scores = append(scores, s)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Raw != scores[j].Raw {
			return scores[i].Raw > scores[j].Raw
		}
		return scores[i].Category < scores[j].Category
	})
	return scores
}

// Classify picks the best category. Among categories that meet their
// threshold the highest raw score wins; otherwise the highest raw score
// overall is used as a fallback. With no matches at all it returns General
// with zero confidence.
func (t Table) Classify(content, path string) Result {
	scores := t.Scores(content, path)
	if len(scores) == 0 || scores[0].Raw == 0 {
		return Result{Category: General}
	}

	thresholds := make(map[string]float64, len(t))
	for _, r := range t {
		thresholds[r.Name] = r.Threshold
	}

	for _, s := range scores {
		if s.Raw > 0 && s.Confidence >= thresholds[s.Category] {
			return Result{Category: s.Category, Confidence: s.Confidence, Confident: true, Matched: s.Matched}
		}
	}

	best := scores[0]
	return Result{Category: best.Category, Confidence: best.Confidence, Matched: best.Matched}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
