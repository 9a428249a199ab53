package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	FontFile      string
	CellWidth     int
	CellHeight    int
	Verbose       bool
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:     ImagePNG,
		CellWidth:  defaultCellWidth,
		CellHeight: defaultCellHeight,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&c.FontFile, "font", "", "Path to a TTF font used for annotations")
	flag.IntVar(&c.CellWidth, "cell-width", defaultCellWidth, "Width of one channel column in pixels")
	flag.IntVar(&c.CellHeight, "cell-height", defaultCellHeight, "Height of one cycle row in pixels")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as time and channel scales")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if c.CellWidth <= 0 || c.CellHeight <= 0 {
		err = errors.New("cell dimensions must be positive")
	} else if !c.NoAnnotations && c.FontFile == "" {
		err = errors.New("annotations require a font file (or pass -no-annotations)")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
