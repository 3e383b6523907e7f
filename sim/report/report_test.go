package report

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

func sampleRecords() []sim.JobRecord {
	return []sim.JobRecord{
		{ID: "a", User: "alice", Submit: 0, Start: 0, End: 10, Size: 3, Ranges: []sim.UnitRange{{First: 0, Last: 2}}},
		{ID: "b", User: "bob", Submit: 2, Start: 4, End: 9, Size: 4, Backfilled: true,
			Ranges: []sim.UnitRange{{First: 3, Last: 4}, {First: 8, Last: 9}}},
	}
}

func TestWriteCSV_OneRowPerJob(t *testing.T) {
	// GIVEN two records, one split over two ranges
	var buf bytes.Buffer

	// WHEN exported as CSV
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	// THEN the header and both rows are present with ranges rendered inline
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"b", "bob", "2", "4", "9", "4", "true", "(3,4) (8,9)"}, rows[2])
}

func TestWriteJED_GridSchedule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJED(&buf, sampleRecords(), 10))

	// THEN the document parses back with one node per job and one hosts entry per range
	var doc gridSchedule
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.GridInfo.Clusters, 1)
	assert.Equal(t, 10, doc.GridInfo.Clusters[0].Hosts)
	require.Len(t, doc.NodeInfos, 2)
	second := doc.NodeInfos[1]
	assert.Contains(t, second.Properties, nameValue{"id", "b"})
	assert.Contains(t, second.Properties, nameValue{"start_time", "4"})
	assert.Contains(t, second.Configuration.Properties, nameValue{"host_nb", "4"})
	assert.Equal(t, []hosts{{Start: 3, Nb: 2}, {Start: 8, Nb: 2}}, second.Configuration.Hosts)
	assert.Contains(t, buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`)
}

func TestWriteJED_GridInfoOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJED(&buf, sampleRecords(), 10))

	// THEN nb_clusters comes before the cluster list, unit and slots after it
	out := buf.String()
	nb := strings.Index(out, `name="nb_clusters"`)
	clusters := strings.Index(out, "<clusters>")
	unit := strings.Index(out, `name="unit"`)
	slots := strings.Index(out, `name="slots"`)
	require.True(t, nb >= 0 && clusters >= 0 && unit >= 0 && slots >= 0, out)
	assert.Less(t, nb, clusters)
	assert.Less(t, clusters, unit)
	assert.Less(t, unit, slots)
	assert.Contains(t, out, `<cluster id="0" hosts="10" first_host="0"></cluster>`)
}

func TestWriteJED_WrongSizing_Fails(t *testing.T) {
	// GIVEN a record whose ranges do not cover its size
	records := []sim.JobRecord{{ID: "x", Size: 3, Ranges: []sim.UnitRange{{First: 0, Last: 0}}}}

	// WHEN exported
	err := WriteJED(&bytes.Buffer{}, records, 4)

	// THEN the sizing error surfaces
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong number of units")
}

func TestRows_OnePerRange(t *testing.T) {
	rows := Rows(sampleRecords())
	require.Len(t, rows, 3)
	assert.Equal(t, AllocationRow{JobID: "b", User: "bob", Submit: 2, Start: 4, End: 9, Size: 4, Backfilled: true, First: 8, Last: 9}, rows[2])
}

func TestWriteParquet_ProducesParquetFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, sampleRecords()))

	// THEN the output is framed by the parquet magic bytes
	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestWriteFile_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	err := WriteFile(path, "json", sampleRecords(), 10)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is created for an unknown format")
}

func TestWriteFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteFile(path, FormatCSV, sampleRecords(), 10))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `a,alice,0,0,10,3,false,"(0,2)"`)
}
