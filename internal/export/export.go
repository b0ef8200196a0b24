package export

import (
	"encoding/json"
	"os"

	"github.com/terralab/landform/internal/grid"
)

// Dataset is the JSON form of a finished run: grid geometry, the fields
// present on the grid, and whatever summary metrics the caller attaches.
type Dataset struct {
	Model   string               `json:"model"`
	Time    float64              `json:"time"`
	Rows    int                  `json:"rows"`
	Cols    int                  `json:"cols"`
	Spacing float64              `json:"spacing"`
	Fields  map[string][]float64 `json:"fields"`
	Metrics map[string]float64   `json:"metrics,omitempty"`
}

// BuildDataset snapshots every field on the grid. Field slices are copied
// so the dataset stays stable if the model keeps running.
func BuildDataset(modelName string, t float64, g *grid.Raster, metrics map[string]float64) *Dataset {
	fields := make(map[string][]float64)
	for _, name := range g.FieldNames() {
		src, err := g.Field(name)
		if err != nil {
			continue
		}
		dst := make([]float64, len(src))
		copy(dst, src)
		fields[name] = dst
	}
	return &Dataset{
		Model:   modelName,
		Time:    t,
		Rows:    g.Rows,
		Cols:    g.Cols,
		Spacing: g.Spacing,
		Fields:  fields,
		Metrics: metrics,
	}
}

// WriteDataset serializes the dataset as indented JSON.
func WriteDataset(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

// RemoveOutput deletes the listed files, ignoring ones already gone.
// Returns the first real error after attempting every path.
func RemoveOutput(paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
