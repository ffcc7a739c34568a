package accesslog

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// TimestampLayout renders timestamps as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// HeaderSentinel starts every header line.
const HeaderSentinel = "="

// Record is one parsed data line.
type Record struct {
	Timestamp string `json:"timestamp"`
	Method    string `json:"method"`
	URL       string `json:"url"`
	Extra     string `json:"extra"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatLine renders r as a data line, including the trailing newline.
// It is the inverse of ParseLine for well-formed records.
func FormatLine(r Record) string {
	return "[" + r.Timestamp + "] " + r.Method + " " + r.URL + " " + r.Extra + "\n"
}

// ParseLine parses a data line of the form
//
//	"[" timestamp "] " method " " url (" " extra)?
//
// The timestamp runs up to the first "]". The method is a run of word
// characters; the url is the next whitespace-free token; everything after
// the single whitespace character that ends the url is extra.
//
// A trailing newline (or CRLF) is ignored. Lines that don't match the
// grammar return false.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	ts, rest, ok := splitTimestamp(line)
	if !ok || !strings.HasPrefix(rest, " ") {
		return Record{}, false
	}
	rest = rest[1:]

	n := 0
	for n < len(rest) && isWordByte(rest[n]) {
		n++
	}
	if n == 0 || n == len(rest) || rest[n] != ' ' {
		return Record{}, false
	}
	r := Record{Timestamp: ts, Method: rest[:n]}
	rest = rest[n+1:]

	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		r.URL = rest
		return r, true
	}
	r.URL = rest[:end]
	_, size := utf8.DecodeRuneInString(rest[end:])
	r.Extra = rest[end+size:]
	return r, true
}

// splitTimestamp splits a line beginning with "[timestamp]" into the
// timestamp and whatever follows the closing bracket.
func splitTimestamp(line string) (ts, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", "", false
	}
	return line[1:end], line[end+1:], true
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// IsDataLine reports whether line carries a record (or a malformed one).
// Blank lines and header lines are not data.
func IsDataLine(line string) bool {
	return strings.TrimSpace(line) != "" && !strings.HasPrefix(line, HeaderSentinel)
}

// WellFormed reports whether r survives a FormatLine/ParseLine round trip.
func (r Record) WellFormed() bool {
	if strings.ContainsAny(r.Timestamp, "]\n") || r.URL == "" || strings.ContainsAny(r.Extra, "\r\n") {
		return false
	}
	if r.Method == "" {
		return false
	}
	for i := 0; i < len(r.Method); i++ {
		if !isWordByte(r.Method[i]) {
			return false
		}
	}
	return strings.IndexFunc(r.URL, unicode.IsSpace) < 0
}

// Time parses the record's timestamp as an instant.
func (r Record) Time() (time.Time, error) {
	return ParseTime(r.Timestamp)
}

// CSVRow renders r as one export row. Fields are quoted but embedded
// quotes and commas are not escaped.
func (r Record) CSVRow() string {
	return `"` + r.Timestamp + `","` + r.Method + `","` + r.URL + `","` + r.Extra + `"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp or date. Values without a zone
// are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
