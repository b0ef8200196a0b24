package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/terralab/landform/internal/grid"
)

// elevation ramp, low to high
var shadeRamp = []rune(" .:-=+*#%@")

// ElevationMap draws the surface as a character map, one rune per cell,
// north at the top. Closed boundary cells render as '~'.
func ElevationMap(g *grid.Raster, field string) (string, error) {
	z, err := g.Field(field)
	if err != nil {
		return "", err
	}
	lo, hi, err := g.MinMax(field)
	if err != nil {
		return "", err
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var b strings.Builder
	for r := g.Rows - 1; r >= 0; r-- {
		for c := 0; c < g.Cols; c++ {
			i := g.Index(r, c)
			if g.Status[i] == grid.ClosedBoundary {
				b.WriteRune('~')
				continue
			}
			k := int(float64(len(shadeRamp)-1) * (z[i] - lo) / span)
			if k < 0 {
				k = 0
			}
			if k >= len(shadeRamp) {
				k = len(shadeRamp) - 1
			}
			b.WriteRune(shadeRamp[k])
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// SeriesPlot renders one metric time series as a terminal line graph.
func SeriesPlot(name string, values []float64, width, height int) string {
	if len(values) < 2 {
		return fmt.Sprintf("%s: not enough samples", name)
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name),
	)
}

// ComparePlot overlays several series on one graph, in legend order.
func ComparePlot(caption string, series [][]float64, width, height int) string {
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow),
	)
}
