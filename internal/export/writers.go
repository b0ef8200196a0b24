package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/terralab/landform/internal/grid"
)

// GridSnapshotWriter dumps the elevation field as an ESRI ASCII grid at
// every scheduled output time.
type GridSnapshotWriter struct {
	Dir    string
	Prefix string
	Field  string
}

func NewGridSnapshotWriter(dir, prefix string) *GridSnapshotWriter {
	return &GridSnapshotWriter{Dir: dir, Prefix: prefix, Field: grid.FieldElevation}
}

func (w *GridSnapshotWriter) Name() string { return "grid_snapshot" }

func (w *GridSnapshotWriter) WriteOutput(t float64, g *grid.Raster) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%010.0f.asc", w.Prefix, t))
	if err := grid.WriteEsriAscii(path, g, w.Field); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// FrameRecorder renders a paletted frame of the surface at each output
// time and keeps them in memory until WriteGIF.
type FrameRecorder struct {
	Scale  int
	Lo, Hi float64

	frames []*image.Paletted
}

func NewFrameRecorder(scale int) *FrameRecorder {
	if scale < 1 {
		scale = 1
	}
	return &FrameRecorder{Scale: scale}
}

func (r *FrameRecorder) Name() string { return "frame_recorder" }

func (r *FrameRecorder) WriteOutput(t float64, g *grid.Raster) ([]string, error) {
	frame, err := grid.RenderFrame(g, grid.FieldElevation, r.Scale, r.Lo, r.Hi)
	if err != nil {
		return nil, err
	}
	r.frames = append(r.frames, frame)
	return nil, nil
}

func (r *FrameRecorder) Frames() int { return len(r.frames) }

// WriteGIF assembles the recorded frames into an animation. Delay is in
// hundredths of a second per frame.
func (r *FrameRecorder) WriteGIF(path string, delay int) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	return grid.WriteGIF(path, r.frames, delay)
}
