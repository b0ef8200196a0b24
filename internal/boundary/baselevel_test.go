package boundary

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/terralab/landform/internal/grid"
)

func baselevelGrid(t *testing.T) *grid.Raster {
	t.Helper()
	g, err := grid.NewRaster(5, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	g.AddConstant(grid.FieldElevation, 1.0)
	g.AddZeros(grid.FieldBedrock)
	return g
}

func writeHistory(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outlet_history.txt")
	if err := os.WriteFile(path, []byte(rows), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSingleNodeBaselevel_ConstantRate(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)
	outlet := gr.Index(0, 1)

	rate := 0.1
	h, err := NewSingleNodeBaselevel(gr, outlet, SingleNodeBaselevelConfig{LoweringRate: &rate})
	g.Expect(err).NotTo(HaveOccurred())

	for i := 0; i < 240; i++ {
		g.Expect(h.RunOneStep(10)).To(Succeed())
	}

	z, _ := gr.Field(grid.FieldElevation)
	rock, _ := gr.Field(grid.FieldBedrock)
	g.Expect(z[outlet]).To(BeNumerically("~", -239.0, 1e-9))
	g.Expect(rock[outlet]).To(BeNumerically("~", -240.0, 1e-9))

	// only the outlet moves
	other := gr.Index(0, 2)
	g.Expect(z[other]).To(Equal(1.0))
	g.Expect(rock[other]).To(Equal(0.0))
}

func TestSingleNodeBaselevel_ExactlyOneMode(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)
	rate := 0.1
	path := writeHistory(t, "0 0\n1600 -30\n3200 -65\n")

	_, err := NewSingleNodeBaselevel(gr, 0, SingleNodeBaselevelConfig{})
	g.Expect(err).To(HaveOccurred())

	_, err = NewSingleNodeBaselevel(gr, 0, SingleNodeBaselevelConfig{
		LoweringRate:     &rate,
		LoweringFilePath: path,
	})
	g.Expect(err).To(HaveOccurred())
}

func TestSingleNodeBaselevel_FileHistory(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)
	outlet := gr.Index(0, 1)
	path := writeHistory(t, "# time change\n0 0\n1600 -30\n3200 -65\n")

	h, err := NewSingleNodeBaselevel(gr, outlet, SingleNodeBaselevelConfig{LoweringFilePath: path})
	g.Expect(err).NotTo(HaveOccurred())

	// 24 steps of 100 years reach t=2400, halfway up the second segment:
	// cumulative change -30 + 0.5*(-35) = -47.5
	for i := 0; i < 24; i++ {
		g.Expect(h.RunOneStep(100)).To(Succeed())
	}

	z, _ := gr.Field(grid.FieldElevation)
	g.Expect(z[outlet]).To(BeNumerically("~", 1.0-47.5, 1e-9))
}

func TestSingleNodeBaselevel_ScaledFileHistory(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)
	outlet := gr.Index(0, 1)
	path := writeHistory(t, "0 0\n1600 -30\n3200 -65\n")

	// history ends at -65; requesting -130 at the model end doubles it
	end := -130.0
	h, err := NewSingleNodeBaselevel(gr, outlet, SingleNodeBaselevelConfig{
		LoweringFilePath:  path,
		ModelEndElevation: &end,
		ModelEndTime:      3200,
	})
	g.Expect(err).NotTo(HaveOccurred())

	for i := 0; i < 24; i++ {
		g.Expect(h.RunOneStep(100)).To(Succeed())
	}

	z, _ := gr.Field(grid.FieldElevation)
	g.Expect(z[outlet]).To(BeNumerically("~", 1.0-2*47.5, 1e-9))
}

func TestSingleNodeBaselevel_ClampsPastRecord(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)
	outlet := gr.Index(0, 1)
	path := writeHistory(t, "0 0\n1000 -10\n")

	h, err := NewSingleNodeBaselevel(gr, outlet, SingleNodeBaselevelConfig{LoweringFilePath: path})
	g.Expect(err).NotTo(HaveOccurred())

	// 3000 years of stepping, but the record stops changing at t=1000
	for i := 0; i < 30; i++ {
		g.Expect(h.RunOneStep(100)).To(Succeed())
	}
	z, _ := gr.Field(grid.FieldElevation)
	g.Expect(z[outlet]).To(BeNumerically("~", 1.0-10.0, 1e-9))
}

func TestReadLoweringHistory_Errors(t *testing.T) {
	g := NewWithT(t)

	_, err := readLoweringHistory(writeHistory(t, "0 0\n"))
	g.Expect(err).To(HaveOccurred(), "one row is not a history")

	_, err = readLoweringHistory(writeHistory(t, "0 0\n500 -5 extra\n"))
	g.Expect(err).To(HaveOccurred(), "three columns should fail")

	_, err = readLoweringHistory(writeHistory(t, "0 0\n1000 -10\n500 -20\n"))
	g.Expect(err).To(HaveOccurred(), "times must increase")

	_, err = readLoweringHistory(filepath.Join(t.TempDir(), "missing.txt"))
	g.Expect(err).To(HaveOccurred())
}

func TestNotCoreBaselevel(t *testing.T) {
	g := NewWithT(t)
	gr := baselevelGrid(t)

	h, err := NewNotCoreBaselevel(gr, 0.001)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(h.RunOneStep(1000)).To(Succeed())

	z, _ := gr.Field(grid.FieldElevation)
	rock, _ := gr.Field(grid.FieldBedrock)
	for i := 0; i < gr.NumNodes(); i++ {
		if gr.IsCore(i) {
			g.Expect(z[i]).To(Equal(1.0), "core nodes stay put")
		} else {
			g.Expect(z[i]).To(BeNumerically("~", 0.0, 1e-12))
			g.Expect(rock[i]).To(BeNumerically("~", -1.0, 1e-12))
		}
	}
}
