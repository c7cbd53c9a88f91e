package complexity

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// AnalyzeTable scores delimited data. Malformed rows are counted as far as
// they parse; the reader stops at the first hard error.
func AnalyzeTable(content string, delimiter rune) Report {
	r := Report{Scorer: ScorerTabular, Lines: countLines(content)}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}
		r.Rows++
		if len(record) > r.Cols {
			r.Cols = len(record)
		}
	}

	r.Score = TabularScore(r.Rows, r.Cols)
	if r.Rows > 0 {
		r.Patterns = []string{"tabular_data"}
	}
	return r
}
