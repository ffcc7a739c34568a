package accesslog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CSVHeader is the first row of a CSV export.
const CSVHeader = "Fecha,Método,URL,Información Adicional"

// Export is a rendered export body.
type Export struct {
	Format      string
	ContentType string
	Filename    string
	Body        []byte
}

type exportDocument struct {
	Logs            []Record `json:"logs"`
	ExportTimestamp string   `json:"exportTimestamp"`
}

// Export renders every parseable record. Format "csv" yields a header row
// followed by one row per record; any other format yields an indented JSON
// document {"logs": [...], "exportTimestamp": "..."}. Unparseable lines are
// dropped.
func (e *Engine) Export(format string) (*Export, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lines, err := e.dataLines()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if r, ok := ParseLine(line); ok {
			records = append(records, r)
		}
	}

	if format == "csv" {
		rows := make([]string, len(records))
		for i, r := range records {
			rows[i] = r.CSVRow()
		}
		return &Export{
			Format:      "csv",
			ContentType: "text/csv; charset=utf-8",
			Filename:    "logs.csv",
			Body:        []byte(CSVHeader + "\n" + strings.Join(rows, "\n")),
		}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	doc := exportDocument{Logs: records, ExportTimestamp: FormatTimestamp(e.clock.Now())}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return &Export{
		Format:      "json",
		ContentType: "application/json; charset=utf-8",
		Filename:    "logs.json",
		Body:        buf.Bytes(),
	}, nil
}
