package parser

import (
	_ "embed"
	"io"
	"os"

	"github.com/okofen-viewer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_styles.yaml
var defaultStylesYAML []byte

// BandStyle describes how one burner status is shaded on the chart.
type BandStyle struct {
	Color   string  `yaml:"color" json:"color"`
	Opacity float64 `yaml:"opacity" json:"opacity"`
}

// SeriesStyle describes the plotted line.
type SeriesStyle struct {
	Color string `yaml:"color" json:"color"`
	Label string `yaml:"label" json:"label"`
}

// ChartStyles maps burner statuses to background band styles.
// The defaults mirror the classic shading: green ignition, yellow soft
// start, red burning, blue post-run.
type ChartStyles struct {
	Series SeriesStyle                       `yaml:"series" json:"series"`
	Bands  map[models.BurnerStatus]BandStyle `yaml:"bands" json:"bands"`
}

// DefaultChartStyles returns the embedded default style document.
func DefaultChartStyles() *ChartStyles {
	styles, err := parseChartStyles(defaultStylesYAML)
	if err != nil {
		// The embedded document is fixed at build time.
		panic("parser: embedded default_styles.yaml is invalid: " + err.Error())
	}
	return styles
}

// LoadChartStyles parses a YAML style override file.
func LoadChartStyles(filePath string) (*ChartStyles, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseChartStylesFromReader(file)
}

// ParseChartStylesFromReader parses styles from an io.Reader.
func ParseChartStylesFromReader(r io.Reader) (*ChartStyles, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseChartStyles(data)
}

func parseChartStyles(data []byte) (*ChartStyles, error) {
	var styles ChartStyles
	if err := yaml.Unmarshal(data, &styles); err != nil {
		return nil, err
	}
	return &styles, nil
}
