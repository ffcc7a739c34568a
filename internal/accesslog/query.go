package accesslog

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Stats summarizes the parseable records of the file.
type Stats struct {
	TotalRecords int            `json:"totalRegistros"`
	Methods      map[string]int `json:"metodos"`
	UniqueURLs   []string       `json:"urlsUnicas"`
	First        *string        `json:"fechaInicio"`
	Last         *string        `json:"fechaUltimo"`

	// Skipped counts data lines that did not parse and were left out.
	Skipped int `json:"lineasOmitidas"`
}

// Statistics counts records per method, collects distinct URLs in
// first-seen order, and reports the first and last record timestamps in
// file order.
func (e *Engine) Statistics() (*Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lines, err := e.dataLines()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Methods:    make(map[string]int),
		UniqueURLs: make([]string, 0),
	}
	seen := make(map[string]bool)
	for _, line := range lines {
		r, ok := ParseLine(line)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.TotalRecords++
		stats.Methods[r.Method]++
		if !seen[r.URL] {
			seen[r.URL] = true
			stats.UniqueURLs = append(stats.UniqueURLs, r.URL)
		}
		if stats.First == nil {
			first := r.Timestamp
			stats.First = &first
		}
		last := r.Timestamp
		stats.Last = &last
	}
	return stats, nil
}

// Criteria narrows Filter. Zero-valued fields are not applied.
type Criteria struct {
	// Method must match the record's method exactly.
	Method string

	// From and To bound the record's timestamp, inclusive.
	From time.Time
	To   time.Time

	// URLContains must occur in the record's URL, ignoring case.
	URLContains string
}

// Filter returns the records matching every present criterion, in file
// order. When a date bound is present, records whose timestamp does not
// parse never match.
func (e *Engine) Filter(c Criteria) ([]Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lines, err := e.dataLines()
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(c.URLContains)

	out := make([]Record, 0)
	for _, line := range lines {
		r, ok := ParseLine(line)
		if !ok {
			continue
		}
		if c.Method != "" && r.Method != c.Method {
			continue
		}
		if !c.From.IsZero() || !c.To.IsZero() {
			t, err := r.Time()
			if err != nil {
				continue
			}
			if !c.From.IsZero() && t.Before(c.From) {
				continue
			}
			if !c.To.IsZero() && t.After(c.To) {
				continue
			}
		}
		if c.URLContains != "" && !strings.Contains(fold.String(r.URL), needle) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Match is one Search hit.
type Match struct {
	// LineNumber is 1-based among data lines; header and blank lines are
	// not counted.
	LineNumber int    `json:"lineNumber"`
	Line       string `json:"line"`
}

// Search returns every data line containing term, ignoring case. The raw
// line is matched, so timestamps and extra text are searchable too.
func (e *Engine) Search(term string) ([]Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lines, err := e.dataLines()
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]Match, 0)
	for i, line := range lines {
		if strings.Contains(fold.String(line), needle) {
			out = append(out, Match{LineNumber: i + 1, Line: line})
		}
	}
	return out, nil
}
