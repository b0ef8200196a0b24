package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid I/O. The format stores rows north-to-south, so rows are
// reversed relative to the node ordering here (row 0 = south edge).

type esriHeader struct {
	ncols, nrows         int
	xll, yll             float64
	cellsize             float64
	nodata               float64
}

// ReadEsriAscii parses an ESRI ASCII grid file into a new field on g. The
// file's dimensions must match the grid.
func ReadEsriAscii(path string, g *Raster, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read esri ascii: %w", err)
	}
	defer f.Close()
	return decodeEsriAscii(f, g, name)
}

func decodeEsriAscii(r io.Reader, g *Raster, name string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	hdr := esriHeader{nodata: -9999}
	seen := 0
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if seen < 6 && len(fields) == 2 && !isNumeric(fields[0]) {
			key := strings.ToLower(fields[0])
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return fmt.Errorf("esri header %s: %w", key, err)
			}
			switch key {
			case "ncols":
				hdr.ncols = int(v)
			case "nrows":
				hdr.nrows = int(v)
			case "xllcorner", "xllcenter":
				hdr.xll = v
			case "yllcorner", "yllcenter":
				hdr.yll = v
			case "cellsize":
				hdr.cellsize = v
			case "nodata_value":
				hdr.nodata = v
			default:
				return fmt.Errorf("esri header: unknown key %q", key)
			}
			seen++
			continue
		}
		for _, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("esri data: %w", err)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if hdr.ncols != g.Cols || hdr.nrows != g.Rows {
		return fmt.Errorf("esri grid is %dx%d, model grid is %dx%d",
			hdr.nrows, hdr.ncols, g.Rows, g.Cols)
	}
	if len(values) != g.NumNodes() {
		return fmt.Errorf("esri grid has %d values, expected %d", len(values), g.NumNodes())
	}

	field := g.AddZeros(name)
	for r := 0; r < g.Rows; r++ {
		src := (g.Rows - 1 - r) * g.Cols
		copy(field[r*g.Cols:(r+1)*g.Cols], values[src:src+g.Cols])
	}
	return nil
}

// WriteEsriAscii writes field name of g to path in ESRI ASCII format.
func WriteEsriAscii(path string, g *Raster, name string) error {
	field, err := g.Field(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write esri ascii: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", g.Cols)
	fmt.Fprintf(w, "nrows %d\n", g.Rows)
	fmt.Fprintf(w, "xllcorner 0.0\n")
	fmt.Fprintf(w, "yllcorner 0.0\n")
	fmt.Fprintf(w, "cellsize %g\n", g.Spacing)
	fmt.Fprintf(w, "NODATA_value -9999\n")
	for r := g.Rows - 1; r >= 0; r-- {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				w.WriteByte(' ')
			}
			fmt.Fprintf(w, "%g", field[g.Index(r, c)])
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
