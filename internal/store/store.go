package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/model"
)

// Store keeps each completed run in its own directory under baseDir:
// metadata.json, series.csv (per-step metrics), and the final surface as
// an ESRI ASCII grid.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Rows      int                `json:"rows"`
	Cols      int                `json:"cols"`
	Spacing   float64            `json:"spacing"`
	Seed      int64              `json:"seed"`
	Step      float64            `json:"step"`
	Stop      float64            `json:"stop"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) Save(modelName string, seed int64, g *grid.Raster, step, stop float64, result *model.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", modelName, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     modelName,
		Timestamp: time.Now(),
		Rows:      g.Rows,
		Cols:      g.Cols,
		Spacing:   g.Spacing,
		Seed:      seed,
		Step:      step,
		Stop:      stop,
		Steps:     result.Steps,
		Metrics:   result.Metrics,
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

	if err := s.writeSeries(filepath.Join(runDir, "series.csv"), result); err != nil {
		return "", err
	}
	if err := grid.WriteEsriAscii(filepath.Join(runDir, "final_elevation.asc"), g, grid.FieldElevation); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeSeries(path string, result *model.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	header := append([]string{"time"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'f', 2, 64)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(result.Series[name][i], 'g', 8, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads back the per-step metric series of a run.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("run %s has no series data", runID)
	}

	header := rows[0]
	times := make([]float64, 0, len(rows)-1)
	series := make(map[string][]float64, len(header)-1)
	for _, row := range rows[1:] {
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		for c := 1; c < len(header); c++ {
			v, err := strconv.ParseFloat(row[c], 64)
			if err != nil {
				return nil, nil, err
			}
			series[header[c]] = append(series[header[c]], v)
		}
	}
	return times, series, nil
}

// LoadElevation reads a run's final surface into a fresh grid.
func (s *Store) LoadElevation(runID string) (*grid.Raster, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	g, err := grid.NewRaster(meta.Rows, meta.Cols, meta.Spacing)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(s.baseDir, runID, "final_elevation.asc")
	if err := grid.ReadEsriAscii(path, g, grid.FieldElevation); err != nil {
		return nil, err
	}
	return g, nil
}
