package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidName = errors.New("storage: invalid name")
)

const (
	circuitsDir = "circuits"
	runsDir     = "runs"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store keeps named circuits and recorded runs under one directory:
//
//	circuits/<name>.json
//	runs/<id>/metadata.json
//	runs/<id>/trace.csv
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	for _, dir := range []string{circuitsDir, runsDir} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), 0755); err != nil {
			return err
		}
	}
	return nil
}

func validName(name string) error {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (s *Store) circuitPath(name string) string {
	return filepath.Join(s.baseDir, circuitsDir, name+".json")
}

// PutCircuit stores a snapshot under name, replacing any previous one.
func (s *Store) PutCircuit(name string, snap circuit.Snapshot) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	return circuit.SaveFile(s.circuitPath(name), snap)
}

func (s *Store) GetCircuit(name string) (circuit.Snapshot, error) {
	if err := validName(name); err != nil {
		return circuit.Snapshot{}, err
	}
	snap, err := circuit.LoadFile(s.circuitPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return circuit.Snapshot{}, fmt.Errorf("%w: circuit %q", ErrNotFound, name)
	}
	return snap, err
}

func (s *Store) HasCircuit(name string) bool {
	if validName(name) != nil {
		return false
	}
	_, err := os.Stat(s.circuitPath(name))
	return err == nil
}

func (s *Store) ListCircuits() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, circuitsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DeleteCircuit(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.circuitPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: circuit %q", ErrNotFound, name)
	}
	return err
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Circuit   string             `json:"circuit"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Probes    []string           `json:"probes"`
	Metrics   map[string]float64 `json:"metrics"`
	Errors    []string           `json:"errors,omitempty"`
}

// SaveRun records a simulator result and returns the new run id.
func (s *Store) SaveRun(circuitName string, cfg sim.Config, result *sim.Result) (string, error) {
	if err := validName(circuitName); err != nil {
		return "", err
	}
	runID := fmt.Sprintf("%s_%s", circuitName, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runsDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Circuit:   circuitName,
		Timestamp: time.Now(),
		Dt:        cfg.Dt,
		Steps:     result.StepsTaken,
		Probes:    result.Probes,
		Metrics:   result.Metrics,
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(append([]string{"time"}, result.Probes...)); err != nil {
		return "", err
	}
	for i, row := range result.Trace {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, v := range row {
			record = append(record, v.String())
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// ListRuns returns recorded runs, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) ListRuns() ([]RunMetadata, error) {
	dir := filepath.Join(s.baseDir, runsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) LoadRun(runID string) (*RunMetadata, error) {
	if err := validName(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runsDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrace reads a run's trace back into a result.
func (s *Store) LoadTrace(runID string) (*sim.Result, error) {
	if err := validName(runID); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runsDir, runID, "trace.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty trace", runID)
	}

	result := &sim.Result{
		Probes:  records[0][1:],
		Times:   make([]float64, 0, len(records)-1),
		Trace:   make([][]circuit.Level, 0, len(records)-1),
		Metrics: make(map[string]float64),
	}
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		row := make([]circuit.Level, len(record)-1)
		for j, field := range record[1:] {
			row[j] = circuit.FromBool(field == "1")
		}
		result.Times = append(result.Times, t)
		result.Trace = append(result.Trace, row)
	}
	result.StepsTaken = len(result.Trace) - 1

	if meta, err := s.LoadRun(runID); err == nil {
		result.Metrics = meta.Metrics
	}
	return result, nil
}
