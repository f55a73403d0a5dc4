package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/sim"
)

func sampleTrajectory(t *testing.T) *epi.Trajectory {
	t.Helper()
	tr, err := epi.NewTrajectory(epi.SIR, []string{"S", "I", "R"},
		[]float64{0, 0.5, 1},
		[]epi.State{{999, 1, 0}, {998.8571428571429, 1.1, 0.0428571428571}, {998.6, 1.2, 0.2}})
	require.NoError(t, err)
	return tr
}

func fixedClock(st *Store, at time.Time) {
	st.now = func() time.Time { return at }
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), DefaultDir))
	fixedClock(st, time.Unix(1700000000, 0))
	tr := sampleTrajectory(t)

	runID, err := st.Save(RunMetadata{
		Scenario: "sir/textbook",
		Mode:     "continuous",
		Solver:   "rk45",
		Rates:    map[string]float64{"beta": 0.3, "gamma": 0.1},
		Metrics:  map[string]float64{"peak_I": 1.2},
	}, tr)
	require.NoError(t, err)
	assert.Equal(t, "sir_1700000000", runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, epi.SIR, meta.Variant)
	assert.Equal(t, []string{"S", "I", "R"}, meta.Compartments)
	assert.Equal(t, 3, meta.Points)
	assert.Equal(t, 1.2, meta.Metrics["peak_I"])
	assert.Equal(t, 0.3, meta.Rates["beta"])

	_, got, err := st.LoadTrajectory(runID)
	require.NoError(t, err)
	assert.Equal(t, tr.TimeGrid(), got.TimeGrid())
	for i := 0; i < tr.Len(); i++ {
		assert.Equal(t, tr.StateAt(i), got.StateAt(i), "row %d must round trip exactly", i)
	}
}

func TestStoreCSVHeader(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Mode: "continuous"}, sampleTrajectory(t))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(st.Dir(), runID, "trajectory.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "time,S,I,R", lines[0])
	assert.Equal(t, "0,999,1,0", lines[1])
}

func TestStoreUniqueIDs(t *testing.T) {
	st := New(t.TempDir())
	fixedClock(st, time.Unix(42, 0))
	tr := sampleTrajectory(t)

	first, err := st.Save(RunMetadata{}, tr)
	require.NoError(t, err)
	second, err := st.Save(RunMetadata{}, tr)
	require.NoError(t, err)

	assert.Equal(t, "sir_42", first)
	assert.Equal(t, "sir_42_2", second)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	tr := sampleTrajectory(t)
	fixedClock(st, time.Unix(200, 0))
	_, err = st.Save(RunMetadata{Scenario: "later"}, tr)
	require.NoError(t, err)
	fixedClock(st, time.Unix(100, 0))
	_, err = st.Save(RunMetadata{Scenario: "earlier"}, tr)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(st.Dir(), "junk"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), "notes.txt"), []byte("x"), 0644))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "earlier", runs[0].Scenario)
	assert.Equal(t, "later", runs[1].Scenario)
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("sir_1")
	require.ErrorIs(t, err, ErrNoRun)
	_, _, err = st.LoadTrajectory("sir_1")
	require.ErrorIs(t, err, ErrNoRun)
}

func TestStoreRejectsEmptyTrajectory(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Save(RunMetadata{}, nil)
	require.Error(t, err)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no rows", "time,S,I\n"},
		{"bad header", "t,S,I\n0,1,2\n"},
		{"bad number", "time,S,I\n0,1,x\n"},
		{"ragged row", "time,S,I\n0,1,2\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), epi.SIR)
			assert.Error(t, err)
		})
	}
}

func TestExportJSON(t *testing.T) {
	tr := sampleTrajectory(t)
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, RunMetadata{ID: "sir_1", Variant: epi.SIR}, tr))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sir_1", got.Run.ID)
	assert.Equal(t, []string{"S", "I", "R"}, got.Compartments)
	assert.Equal(t, []float64{0, 0.5, 1}, got.Times)
	assert.Equal(t, []float64{1, 1.1, 1.2}, got.Series["I"])
}

func TestDescribeSimulatedRun(t *testing.T) {
	p := epi.ParameterSet{
		Variant:    epi.SIR,
		Population: 1000,
		Initial:    map[string]float64{"I": 1},
		Rates:      map[string]float64{"beta": 0.3, "gamma": 0.1},
	}
	req := sim.DefaultRequest()
	req.Days = 20
	res, err := sim.NewRunner().WithLogger(logging.Discard()).Run(context.Background(), p, req)
	require.NoError(t, err)

	meta := Describe("sir/textbook", p, res)
	assert.Equal(t, "continuous", meta.Mode)
	assert.Equal(t, "rk45", meta.Solver)
	assert.Empty(t, meta.Warnings)

	st := New(t.TempDir())
	runID, err := st.Save(meta, res.Trajectory)
	require.NoError(t, err)
	loaded, tr, err := st.LoadTrajectory(runID)
	require.NoError(t, err)
	assert.Equal(t, "sir/textbook", loaded.Scenario)
	assert.Equal(t, 21, tr.Len())
}
