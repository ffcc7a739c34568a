package accesslog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedExportLog appends three requests one second apart plus a malformed
// line, leaving the clock at 08:00:03.
func seedExportLog(t *testing.T) *Engine {
	t.Helper()
	e, clock := createTestEngine(t)
	e.Append("POST", "/archivos/escribir", "127.0.0.1")
	clock.Advance(time.Second)
	e.Append("GET", "/archivos/leer?name=t.txt&raw=1", "127.0.0.1")
	clock.Advance(time.Second)
	appendRaw(t, e, "this line is not a record\n")
	e.Append("DELETE", "/archivos/eliminar?name=t.txt", "")
	clock.Advance(time.Second)
	return e
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestExport_CSV(t *testing.T) {
	e := seedExportLog(t)

	exp, err := e.Export("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", exp.Format)
	assert.Equal(t, "text/csv; charset=utf-8", exp.ContentType)
	assert.Equal(t, "logs.csv", exp.Filename)

	newGolden(t).Assert(t, "export_csv", exp.Body)
}

func TestExport_JSON(t *testing.T) {
	e := seedExportLog(t)

	exp, err := e.Export("json")
	require.NoError(t, err)
	assert.Equal(t, "json", exp.Format)
	assert.Equal(t, "application/json; charset=utf-8", exp.ContentType)
	assert.Equal(t, "logs.json", exp.Filename)

	newGolden(t).Assert(t, "export_json", exp.Body)
}

func TestExport_UnknownFormatIsJSON(t *testing.T) {
	e := seedExportLog(t)

	for _, format := range []string{"", "xml", "CSV"} {
		exp, err := e.Export(format)
		require.NoError(t, err)
		assert.Equal(t, "json", exp.Format, "format %q", format)

		var doc struct {
			Logs            []Record `json:"logs"`
			ExportTimestamp string   `json:"exportTimestamp"`
		}
		require.NoError(t, json.Unmarshal(exp.Body, &doc))
		assert.Len(t, doc.Logs, 3)
		assert.Equal(t, "2026-10-19T08:00:03.000Z", doc.ExportTimestamp)
	}
}

func TestExport_Empty(t *testing.T) {
	e, _ := createTestEngine(t)

	csv, err := e.Export("csv")
	require.NoError(t, err)
	assert.Equal(t, CSVHeader+"\n", string(csv.Body))

	js, err := e.Export("json")
	require.NoError(t, err)
	assert.Contains(t, string(js.Body), `"logs": []`)
}
