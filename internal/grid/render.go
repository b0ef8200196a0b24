package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"os"
)

// Rendering of a field as raster imagery. Frames use a fixed 64-entry
// palette so they can be reused directly in an animated GIF.

const paletteSize = 64

// TerrainPalette interpolates a dark-green to brown to white elevation ramp.
func TerrainPalette() color.Palette {
	p := make(color.Palette, paletteSize)
	for i := 0; i < paletteSize; i++ {
		t := float64(i) / float64(paletteSize-1)
		var r, g, b float64
		switch {
		case t < 0.5:
			// lowlands: green into brown
			u := t / 0.5
			r, g, b = 40+150*u, 110+30*u, 40
		default:
			// uplands: brown into white
			u := (t - 0.5) / 0.5
			r, g, b = 190+65*u, 140+115*u, 40+215*u
		}
		p[i] = color.RGBA{uint8(r), uint8(g), uint8(b), 255}
	}
	return p
}

// RenderFrame rasterizes field name into a paletted image, scale pixels per
// cell, normalized between lo and hi. Pass lo == hi to normalize per frame.
func RenderFrame(g *Raster, name string, scale int, lo, hi float64) (*image.Paletted, error) {
	field, err := g.Field(name)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	if lo == hi {
		lo, hi, err = g.MinMax(name)
		if err != nil {
			return nil, err
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	img := image.NewPaletted(image.Rect(0, 0, g.Cols*scale, g.Rows*scale), TerrainPalette())
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			v := (field[g.Index(r, c)] - lo) / span
			idx := uint8(math.Max(0, math.Min(float64(paletteSize-1), v*float64(paletteSize-1))))
			// image rows run top-down, grid rows run south-up
			py := (g.Rows - 1 - r) * scale
			px := c * scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetColorIndex(px+dx, py+dy, idx)
				}
			}
		}
	}
	return img, nil
}

// WritePNG writes field name of g to path as a PNG heatmap.
func WritePNG(path string, g *Raster, name string, scale int) error {
	img, err := RenderFrame(g, name, scale, 0, 0)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}

// WriteGIF assembles frames into an animated GIF at path. delay is in
// hundredths of a second per frame.
func WriteGIF(path string, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("write gif: no frames recorded")
	}
	anim := &gif.GIF{
		Image: frames,
		Delay: make([]int, len(frames)),
	}
	for i := range anim.Delay {
		anim.Delay[i] = delay
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write gif: %w", err)
	}
	defer f.Close()
	return gif.EncodeAll(f, anim)
}
