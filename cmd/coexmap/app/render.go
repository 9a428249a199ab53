package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strconv"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	dpi            = 120.0
	fontSize       = 12.0
	tickMarkHeight = 5
	pixelsPerLabel = 60.0

	defaultCellWidth  = 48
	defaultCellHeight = 2

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

// BorderConfig defines the sizes of white space around the heat map
type BorderConfig struct {
	Top    int // Space for the channel scale
	Left   int // Space for the time scale
	Bottom int // Space for the information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for heat map rendering
type RenderConfig struct {
	// Cell geometry: one channel column is CellWidth pixels wide, one
	// evaluation cycle row is CellHeight pixels tall
	CellWidth  int
	CellHeight int

	// Annotation configuration. FontFile is required unless NoAnnotations
	// is set.
	FontFile       string
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	NoAnnotations  bool

	BorderConfig BorderConfig
}

// HeatMapRenderer draws a HeatGrid as an annotated raster image.
type HeatMapRenderer struct {
	colors colorMap
	config RenderConfig
}

// NewHeatMapRenderer creates a renderer with the given configuration.
func NewHeatMapRenderer(config RenderConfig) (*HeatMapRenderer, error) {
	if config.CellWidth <= 0 {
		config.CellWidth = defaultCellWidth
	}
	if config.CellHeight <= 0 {
		config.CellHeight = defaultCellHeight
	}
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
	} else {
		if config.FontFile == "" {
			return nil, fmt.Errorf("annotations require a font file")
		}
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &HeatMapRenderer{
		colors: newColorMap(),
		config: config,
	}, nil
}

// Render creates an image of the severity grid with annotations.
func (r *HeatMapRenderer) Render(grid *HeatGrid) (*image.RGBA, error) {
	if grid.Channels == 0 || len(grid.Rows) == 0 {
		return nil, fmt.Errorf("nothing to render: no recorded samples")
	}

	mapWidth := grid.Channels * r.config.CellWidth
	mapHeight := len(grid.Rows) * r.config.CellHeight

	fullWidth := mapWidth + r.config.BorderConfig.Left + r.config.BorderConfig.Right
	fullHeight := mapHeight + r.config.BorderConfig.Top + r.config.BorderConfig.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	mapArea := image.Rect(
		r.config.BorderConfig.Left,
		r.config.BorderConfig.Top,
		r.config.BorderConfig.Left+mapWidth,
		r.config.BorderConfig.Top+mapHeight,
	)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			FontFile:       r.config.FontFile,
			TimeFormat:     r.config.TimeFormat,
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			CellWidth:      r.config.CellWidth,
			CellHeight:     r.config.CellHeight,
			Borders:        r.config.BorderConfig,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, grid); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderGrid(img, mapArea, grid)

	return img, nil
}

// renderGrid draws the severity cells using the color map.
func (r *HeatMapRenderer) renderGrid(img *image.RGBA, area image.Rectangle, grid *HeatGrid) {
	for y, row := range grid.Rows {
		for x, severity := range row {
			cell := image.Rect(
				area.Min.X+x*r.config.CellWidth,
				area.Min.Y+y*r.config.CellHeight,
				area.Min.X+(x+1)*r.config.CellWidth,
				area.Min.Y+(y+1)*r.config.CellHeight,
			)
			draw.Draw(img, cell, image.NewUniform(r.colors.at(severity)), image.Point{}, draw.Src)
		}
	}
}

// Internal annotator implementation
type annotatorConfig struct {
	FontFile       string
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	CellWidth      int
	CellHeight     int
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	fontBytes, err := os.ReadFile(config.FontFile)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, grid *HeatGrid) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawChannelScale(img, grid); err != nil {
		return fmt.Errorf("drawing channel scale: %w", err)
	}
	if err := a.drawTimeScale(img, grid); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, grid); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) drawChannelScale(img *image.RGBA, grid *HeatGrid) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := a.config.Borders.Top - fontHeight/2

	for channel := 1; channel <= grid.Channels; channel++ {
		// Center of the channel column
		x := a.config.Borders.Left + (channel-1)*a.config.CellWidth + a.config.CellWidth/2

		// Draw tick mark
		for y := a.config.Borders.Top - tickMarkHeight; y < a.config.Borders.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := strconv.Itoa(channel)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing channel label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, grid *HeatGrid) error {
	// One label per pixelsPerLabel of rendered height; cycle timestamps are
	// irregular, so labels follow rows rather than wall-clock steps.
	rowStep := max(1, int(pixelsPerLabel)/a.config.CellHeight)

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for row := 0; row < len(grid.Times); row += rowStep {
		imgY := a.config.Borders.Top + row*a.config.CellHeight

		// Draw tick mark
		for x := a.config.Borders.Left - tickMarkHeight; x < a.config.Borders.Left; x++ {
			img.Set(x, imgY, color.Black)
		}

		textY := imgY + fontHeight/2 - metrics.Descent.Round()

		label := grid.Times[row].In(a.config.Location).Format(a.config.TimeFormat)
		pt := freetype.Pt(10, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, grid *HeatGrid) error {
	start, end := grid.TimeSpan()
	info := fmt.Sprintf("Channels: 1 - %d; Time: %s - %s; %d cycles",
		grid.Channels,
		start.In(a.config.Location).Format(a.config.DatetimeFormat),
		end.In(a.config.Location).Format(a.config.DatetimeFormat),
		len(grid.Rows))

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Center text vertically in bottom border
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(info, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}
