package grid

import (
	"path/filepath"
	"strings"
	"testing"
)

const demText = `ncols 4
nrows 3
xllcorner 0.0
yllcorner 0.0
cellsize 10.0
NODATA_value -9999
12 13 14 15
8 9 10 11
0 1 2 3
`

func TestDecodeEsriAscii(t *testing.T) {
	g, _ := NewRaster(3, 4, 10)
	if err := decodeEsriAscii(strings.NewReader(demText), g, FieldElevation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	z, _ := g.Field(FieldElevation)
	// file rows run north to south; node row 0 is the south edge
	if z[g.Index(0, 0)] != 0 {
		t.Errorf("southwest node should be 0, got %f", z[g.Index(0, 0)])
	}
	if z[g.Index(2, 3)] != 15 {
		t.Errorf("northeast node should be 15, got %f", z[g.Index(2, 3)])
	}
	if z[g.Index(1, 2)] != 10 {
		t.Errorf("middle row misread, got %f", z[g.Index(1, 2)])
	}
}

func TestDecodeEsriAscii_ShapeMismatch(t *testing.T) {
	g, _ := NewRaster(5, 5, 10)
	if err := decodeEsriAscii(strings.NewReader(demText), g, FieldElevation); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestDecodeEsriAscii_BadData(t *testing.T) {
	g, _ := NewRaster(3, 4, 10)
	bad := strings.Replace(demText, "10", "ten", 1)
	if err := decodeEsriAscii(strings.NewReader(bad), g, FieldElevation); err == nil {
		t.Error("expected error for non-numeric data")
	}
}

func TestEsriAsciiRoundTrip(t *testing.T) {
	g, _ := NewRaster(4, 6, 25)
	g.FillRandom(FieldElevation, 99, 10)
	path := filepath.Join(t.TempDir(), "surface.asc")

	if err := WriteEsriAscii(path, g, FieldElevation); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	g2, _ := NewRaster(4, 6, 25)
	if err := ReadEsriAscii(path, g2, FieldElevation); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	a, _ := g.Field(FieldElevation)
	b, _ := g2.Field(FieldElevation)
	for i := range a {
		if diff := a[i] - b[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("node %d changed from %f to %f", i, a[i], b[i])
		}
	}
}
