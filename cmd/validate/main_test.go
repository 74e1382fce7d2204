package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/table"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockFeedPath = "../../data/mock/neows_feed_250530.json"

func writeTable(t *testing.T, records []domain.ObjectApproachRecord) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf, records))
	path := filepath.Join(t.TempDir(), "neo.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRun_ValidTable(t *testing.T) {
	records, err := loadFeed(mockFeedPath)
	require.NoError(t, err)
	tagged, _, err := domain.EnrichAll(records)
	require.NoError(t, err)

	var out bytes.Buffer
	code := run(&out, writeTable(t, tagged), mockFeedPath)
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Records: 3 (3 tagged: 1 High, 1 Medium, 1 Low)")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestRun_DetectsProblems(t *testing.T) {
	records, err := loadFeed(mockFeedPath)
	require.NoError(t, err)
	tagged, _, err := domain.EnrichAll(records)
	require.NoError(t, err)

	tagged[0].MassKG *= 2
	low := domain.RiskLow
	tagged[1].RiskCategory = &low
	tagged = tagged[:2]

	var out bytes.Buffer
	code := run(&out, writeTable(t, tagged), mockFeedPath)
	assert.Equal(t, 1, code)

	report := out.String()
	assert.Equal(t, 3, strings.Count(report, "FAIL"), report)
	assert.Contains(t, report, "mass_kg")
	assert.Contains(t, report, "risk_cluster Low, want Medium")
	assert.Contains(t, report, "table has 2 rows, feed flattens to 3")
}

func TestRun_FetchAndRiskTables(t *testing.T) {
	fetched, err := loadFeed(mockFeedPath)
	require.NoError(t, err)
	tagged, _, err := domain.EnrichAll(fetched)
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, writeTable(t, fetched), mockFeedPath), out.String())
	assert.Contains(t, out.String(), "Records: 3 (0 tagged")

	out.Reset()
	assert.Equal(t, 0, run(&out, writeTable(t, tagged), mockFeedPath), out.String())
}

func TestRun_StaleAnalyticCellsAreFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(table.Header, ",")+"\n"+
		"1,x,2025-05-30,42000000,7.25,5,196349.5,1.23,None,Extreme\n"), 0o644))

	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, path, ""))
	assert.Contains(t, out.String(), "palermo_proxy")
}

func TestRun_UnreadableTable(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL")
}

func TestFloatEq(t *testing.T) {
	assert.True(t, floatEq(0, 0))
	assert.True(t, floatEq(4.2411500823e10, 4.2411500823e10*(1+1e-12)))
	assert.False(t, floatEq(1, 1.001))
}
