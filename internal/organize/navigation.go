package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// NavigationFile is the name of the generated structure overview.
const NavigationFile = "ORGANIZATION.md"

// Navigation renders a Markdown overview of the proposed structure without
// moving anything.
func Navigation(plan *Plan, generated time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Content Organization\n\n")
	fmt.Fprintf(&sb, "Generated %s for `%s`.\n\n", generated.Format("2006-01-02 15:04"), plan.Root)

	actionable := plan.Actionable()
	fmt.Fprintf(&sb, "- Files to organize: %d\n", len(actionable))
	fmt.Fprintf(&sb, "- Already in place or duplicate: %d\n", len(plan.Moves)-len(actionable))
	fmt.Fprintf(&sb, "- Left in place (low confidence): %d\n\n", len(plan.Kept))

	byCategory := make(map[string][]PlannedMove)
	for _, m := range actionable {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	if len(categories) > 0 {
		sb.WriteString("## Structure\n\n")
		for _, c := range categories {
			fmt.Fprintf(&sb, "- [%s/](#%s) (%d files)\n", c, anchor(c), len(byCategory[c]))
		}
		sb.WriteString("\n")
	}

	for _, c := range categories {
		fmt.Fprintf(&sb, "## %s\n\n", c)
		for _, m := range byCategory[c] {
			fmt.Fprintf(&sb, "- `%s` → `%s` (%.0f%%)\n",
				relTo(plan.Root, m.Source), relTo(plan.Destination, m.Target), m.Confidence*100)
		}
		sb.WriteString("\n")
	}

	if len(plan.Kept) > 0 {
		sb.WriteString("## Unsorted\n\n")
		for _, fa := range plan.Kept {
			fmt.Fprintf(&sb, "- `%s` (%s, %.0f%%)\n", relTo(plan.Root, fa.Path), fa.ContentType, fa.Confidence*100)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteNavigation writes the overview into dir and returns its path.
func WriteNavigation(plan *Plan, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, NavigationFile)
	if err := os.WriteFile(path, []byte(Navigation(plan, time.Now())), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func anchor(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
