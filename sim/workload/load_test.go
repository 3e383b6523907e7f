package workload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "log.csv", csvLog)
	swfPath := writeFile(t, dir, "trace.SWF", swfTrace)

	jobs, err := Load(csvPath, "")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = Load(swfPath, "")
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

func TestLoad_ExplicitFormatOverridesExtension(t *testing.T) {
	// GIVEN an SWF trace with a .txt name
	path := writeFile(t, t.TempDir(), "trace.txt", swfTrace)

	// WHEN loaded as swf
	jobs, err := Load(path, FormatSWF)

	// THEN it parses as SWF
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

func TestLoad_UnknownFormat_Fails(t *testing.T) {
	_, err := Load("x.csv", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trace format")
}

func TestLoad_MissingFile_Fails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), "")
	require.Error(t, err)
}

func TestValidate_ReportsEveryBadRecord(t *testing.T) {
	// GIVEN a trace with an oversized job, a time-travelling job and a duplicate id
	jobs := []*sim.Job{
		{ID: "a", Submit: 0, TraceStart: 0, TraceEnd: 5, Size: 2},
		{ID: "b", Submit: 0, TraceStart: 0, TraceEnd: 5, Size: 9},
		{ID: "c", Submit: 4, TraceStart: 2, TraceEnd: 5, Size: 1},
		{ID: "a", Submit: 1, TraceStart: 1, TraceEnd: 2, Size: 1},
	}

	// WHEN validated against 4 units
	err := Validate(jobs, 4)

	// THEN all three problems are reported
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	for _, e := range merr.Errors {
		assert.ErrorIs(t, e, sim.ErrInvalidJob)
	}
	assert.Contains(t, err.Error(), "duplicate job id a")
}

func TestValidate_CleanTrace_Nil(t *testing.T) {
	jobs := []*sim.Job{{ID: "a", Submit: 0, TraceStart: 1, TraceEnd: 5, Size: 4}}
	assert.NoError(t, Validate(jobs, 4))
}
