package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
	"github.com/creative280/proyecto-fs-servicios/internal/testutil"
)

// seedLog writes a log with two records from 40 days ago and one from now.
func seedLog(t *testing.T) (string, time.Time) {
	t.Helper()

	start := time.Now().UTC().AddDate(0, 0, -40).Truncate(time.Second)
	clock := testutil.NewFixedClock(start)
	path := filepath.Join(t.TempDir(), "log.txt")

	e, err := accesslog.New(path,
		accesslog.WithClock(clock),
		accesslog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	e.Append("POST", "/archivos/escribir", "127.0.0.1")
	clock.Advance(time.Hour)
	e.Append("GET", "/archivos/leer?name=Report.txt", "127.0.0.1")
	clock.Set(time.Now().UTC())
	e.Append("GET", "/logs", "10.0.0.2")

	return path, start
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeData(t *testing.T, out string) map[string]any {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object: %s", out)
	return data
}

func TestLogs_MissingFile(t *testing.T) {
	_, err := runCLI(t, "logs", "stats", "--log-file", filepath.Join(t.TempDir(), "none.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "log file not found")
}

func TestLogs_Show(t *testing.T) {
	path, _ := seedLog(t)

	out, err := runCLI(t, "logs", "show", "--log-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), out)
}

func TestLogs_StatsJSON(t *testing.T) {
	path, start := seedLog(t)

	out, err := runCLI(t, "logs", "stats", "--log-file", path, "--format", "json")
	require.NoError(t, err)

	data := decodeData(t, out)
	assert.Equal(t, float64(3), data["totalRegistros"])
	assert.Equal(t, map[string]any{"GET": float64(2), "POST": float64(1)}, data["metodos"])
	assert.Equal(t, accesslog.FormatTimestamp(start), data["fechaInicio"])
	assert.Equal(t, float64(0), data["lineasOmitidas"])
}

func TestLogs_StatsText(t *testing.T) {
	path, _ := seedLog(t)

	out, err := runCLI(t, "logs", "stats", "--log-file", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Records:     3\n")
	assert.Contains(t, out, "  GET      2\n")
	assert.Contains(t, out, "  POST     1\n")
	assert.Contains(t, out, "Unique URLs: 3\n")
	assert.NotContains(t, out, "Skipped")
}

func TestLogs_Filter(t *testing.T) {
	path, start := seedLog(t)

	out, err := runCLI(t, "logs", "filter", "--log-file", path, "--method", "GET", "--url", "REPORT", "--format", "json")
	require.NoError(t, err)
	data := decodeData(t, out)
	assert.Equal(t, float64(1), data["total"])

	to := accesslog.FormatTimestamp(start.Add(30 * time.Minute))
	out, err = runCLI(t, "logs", "filter", "--log-file", path, "--to", to)
	require.NoError(t, err)
	assert.Contains(t, out, "POST /archivos/escribir 127.0.0.1\n")
	assert.Contains(t, out, "1 record(s)\n")

	_, err = runCLI(t, "logs", "filter", "--log-file", path, "--from", "last week")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogs_Search(t *testing.T) {
	path, _ := seedLog(t)

	out, err := runCLI(t, "logs", "search", "report", "--log-file", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "2: ["), lines[0])

	_, err = runCLI(t, "logs", "search", "--log-file", path)
	require.Error(t, err, "term is required")
}

func TestLogs_Prune(t *testing.T) {
	path, _ := seedLog(t)

	out, err := runCLI(t, "logs", "prune", "--log-file", path, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, float64(2), decodeData(t, out)["logsEliminados"])

	out, err = runCLI(t, "logs", "stats", "--log-file", path, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, float64(1), decodeData(t, out)["totalRegistros"])

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "=== SISTEMA DE LOGS ===\n"), "header survives pruning")

	_, err = runCLI(t, "logs", "prune", "--log-file", path, "--days", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogs_ExportCSVToFile(t *testing.T) {
	path, start := seedLog(t)
	dest := filepath.Join(t.TempDir(), "logs.csv")

	out, err := runCLI(t, "logs", "export", "--log-file", path, "--as", "csv", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, accesslog.CSVHeader, lines[0])
	assert.Equal(t, `"`+accesslog.FormatTimestamp(start)+`","POST","/archivos/escribir","127.0.0.1"`, lines[1])
}

func TestLogs_ExportJSONToStdout(t *testing.T) {
	path, _ := seedLog(t)

	out, err := runCLI(t, "logs", "export", "--log-file", path)
	require.NoError(t, err)

	var doc struct {
		Logs            []accesslog.Record `json:"logs"`
		ExportTimestamp string             `json:"exportTimestamp"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Logs, 3)
	assert.Equal(t, "10.0.0.2", doc.Logs[2].Extra)
	assert.NotEmpty(t, doc.ExportTimestamp)
}
