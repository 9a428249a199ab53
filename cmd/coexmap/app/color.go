package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Severity scores are a fixed 0..100 scale, so the color ramp needs no
	// dynamic bounds tracking.
	severityMin = 0
	severityMax = 100

	hueStart = 236.0
	hueEnd   = 0.0

	colorMapSize = 101 // One pre-computed color per severity step
)

var noDataColor = color.Black

// severityColor maps one severity score onto the blue-to-red ramp.
func severityColor(severity float64) color.Color {
	span := float64(severityMax - severityMin)
	hPerStep := (hueStart - hueEnd) / span

	hue := hueStart - (severity-severityMin)*hPerStep
	hue = math.Min(math.Max(hue, hueEnd), hueStart)

	return colorful.Hsv(hue, 1, 0.90)
}

// colorMap is a pre-computed severity-to-color lookup table.
type colorMap []color.Color

func newColorMap() colorMap {
	m := make(colorMap, colorMapSize)
	for i := range m {
		m[i] = severityColor(float64(severityMin) + float64(i)*float64(severityMax-severityMin)/float64(colorMapSize-1))
	}
	return m
}

// at returns the color for a severity cell, or the no-data color for nil.
func (m colorMap) at(severity *int) color.Color {
	if severity == nil {
		return noDataColor
	}

	index := (*severity - severityMin) * (len(m) - 1) / (severityMax - severityMin)
	if index < 0 {
		return m[0]
	}
	if index >= len(m) {
		return m[len(m)-1]
	}
	return m[index]
}
