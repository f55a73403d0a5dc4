// Package storage keeps finished runs on disk. Each run is a directory
// holding metadata.json and trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/sim"
)

const (
	DefaultDir = ".episim"

	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var ErrNoRun = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunMetadata describes how a stored trajectory was produced.
type RunMetadata struct {
	ID           string              `json:"id"`
	Scenario     string              `json:"scenario,omitempty"`
	Variant      epi.Variant         `json:"variant"`
	Timestamp    time.Time           `json:"timestamp"`
	Mode         string              `json:"mode"`
	Solver       string              `json:"solver,omitempty"`
	Population   float64             `json:"population"`
	Initial      map[string]float64  `json:"initial,omitempty"`
	Rates        map[string]float64  `json:"rates"`
	Schedule     epi.ContactSchedule `json:"contact_schedule,omitempty"`
	Compartments []string            `json:"compartments"`
	Points       int                 `json:"points"`
	Metrics      map[string]float64  `json:"metrics,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	ElapsedMS    float64             `json:"elapsed_ms"`
}

// Describe collects the metadata of a finished run.
func Describe(scenario string, p epi.ParameterSet, res *sim.Result) RunMetadata {
	meta := RunMetadata{
		Scenario:   scenario,
		Variant:    p.Variant,
		Mode:       string(res.Mode),
		Solver:     res.Solver,
		Population: p.Population,
		Initial:    p.Initial,
		Rates:      p.Rates,
		Schedule:   p.Schedule,
		ElapsedMS:  float64(res.Elapsed.Microseconds()) / 1000,
	}
	for _, w := range res.Warnings {
		meta.Warnings = append(meta.Warnings, w.Error())
	}
	return meta
}

// Save writes a new run directory named <variant>_<unix seconds>. A numeric
// suffix keeps IDs unique when several runs are saved within one second.
// The ID, timestamp, variant, compartments and point count are filled in
// from the trajectory.
func (s *Store) Save(meta RunMetadata, tr *epi.Trajectory) (string, error) {
	if tr == nil || tr.Len() == 0 {
		return "", fmt.Errorf("storage: empty trajectory")
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	now := s.now()
	base := fmt.Sprintf("%s_%d", tr.Variant(), now.Unix())
	runID := base
	runDir := filepath.Join(s.baseDir, runID)
	for n := 2; ; n++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Variant = tr.Variant()
	meta.Compartments = tr.CompartmentNames()
	meta.Points = tr.Len()

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, tr); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes the header time,<compartments> followed by one row per
// grid point. Values keep full float64 precision.
func WriteCSV(w io.Writer, tr *epi.Trajectory) error {
	cw := csv.NewWriter(w)
	names := tr.CompartmentNames()

	header := append([]string{"time"}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := 0; i < tr.Len(); i++ {
		row[0] = strconv.FormatFloat(tr.Time(i), 'g', -1, 64)
		for j, v := range tr.StateAt(i) {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns the metadata of every readable run, oldest first.
// Directories without valid metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory rebuilds the stored trajectory of a run.
func (s *Store) LoadTrajectory(runID string) (*RunMetadata, *epi.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	tr, err := ReadCSV(f, meta.Variant)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return meta, tr, nil
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(r io.Reader, v epi.Variant) (*epi.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("trajectory has no rows")
	}
	header := records[0]
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	times := make([]float64, 0, len(records)-1)
	rows := make([]epi.State, 0, len(records)-1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		state := make(epi.State, len(record)-1)
		for j, field := range record[1:] {
			state[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", i+1, header[j+1], err)
			}
		}
		times = append(times, t)
		rows = append(rows, state)
	}
	return epi.NewTrajectory(v, header[1:], times, rows)
}
