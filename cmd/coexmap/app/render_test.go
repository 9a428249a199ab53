package app

import (
	"image/color"
	"testing"
	"time"
)

func severityGrid(rows, channels int, severity int) *HeatGrid {
	g := HeatGrid{Channels: channels}
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for y := 0; y < rows; y++ {
		row := make([]*int, channels)
		for x := range row {
			s := severity
			row[x] = &s
		}
		g.Times = append(g.Times, t0.Add(time.Duration(y)*100*time.Millisecond))
		g.Rows = append(g.Rows, row)
	}
	return &g
}

func TestColorMapBounds(t *testing.T) {
	m := newColorMap()

	low, high := 0, 100
	if m.at(&low) == m.at(&high) {
		t.Error("severity extremes must map to distinct colors")
	}
	if m.at(nil) != noDataColor {
		t.Error("nil severity must map to the no-data color")
	}

	over := 250
	if m.at(&over) != m.at(&high) {
		t.Error("out-of-range severity must clamp to the hottest color")
	}
}

func TestColorMapOrdering(t *testing.T) {
	// Severity climbs from blue toward red, so the red component must not
	// decrease along the ramp.
	m := newColorMap()

	prevRed := uint32(0)
	for severity := 0; severity <= 100; severity += 25 {
		r, _, _, _ := m.at(&severity).RGBA()
		if severity > 30 && r < prevRed {
			t.Errorf("red component decreased at severity %d", severity)
		}
		prevRed = r
	}
}

func TestRenderWithoutAnnotations(t *testing.T) {
	renderer, err := NewHeatMapRenderer(RenderConfig{
		CellWidth:     4,
		CellHeight:    2,
		NoAnnotations: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	grid := severityGrid(10, 14, 85)
	img, err := renderer.Render(grid)
	if err != nil {
		t.Fatal(err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 14*4 || bounds.Dy() != 10*2 {
		t.Errorf("image size: got %dx%d, want 56x20", bounds.Dx(), bounds.Dy())
	}

	want := color.RGBAModel.Convert(severityColor(85))
	if got := img.At(0, 0); color.RGBAModel.Convert(got) != want {
		t.Errorf("cell color: got %v, want %v", got, want)
	}
}

func TestRenderEmptyGrid(t *testing.T) {
	renderer, err := NewHeatMapRenderer(RenderConfig{NoAnnotations: true})
	if err != nil {
		t.Fatal(err)
	}

	if _, err = renderer.Render(&HeatGrid{}); err == nil {
		t.Error("expected an error for an empty grid")
	}
}

func TestRendererRequiresFontForAnnotations(t *testing.T) {
	if _, err := NewHeatMapRenderer(RenderConfig{}); err == nil {
		t.Error("expected an error when annotations are on without a font")
	}
}
