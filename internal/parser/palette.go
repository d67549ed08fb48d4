package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/loglens/backend/internal/models"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Palette assigns display colours to levels and highlight classes.
// Colours are "#rrggbb" strings or ANSI colour numbers.
type Palette struct {
	Levels  map[string]string `yaml:"levels" toml:"levels" json:"levels"`
	Classes map[string]string `yaml:"classes" toml:"classes" json:"classes"`
}

// DefaultPalette mirrors the classic console scheme: trace gray, debug aqua,
// info green, warning yellow, error red, fatal magenta.
func DefaultPalette() *Palette {
	return &Palette{
		Levels: map[string]string{
			"TRACE":    "#808080",
			"DEBUG":    "#00ffff",
			"INFO":     "#00ff00",
			"WARNING":  "#ffff00",
			"ERROR":    "#ff0000",
			"FATAL":    "#ff00ff",
			"CRITICAL": "#ff00ff",
			"UNKNOWN":  "#ffffff",
		},
		Classes: map[string]string{
			"operator": "#808080",
			"string":   "#ce9178",
			"number":   "#b5cea8",
			"keyword":  "#569cd6",
			"keyword2": "#c586c0",
			"error":    "#ff0000",
			"comment":  "#6a9955",
			"word":     "#d4d4d4",
		},
	}
}

// LevelColor returns the colour for a level.
func (p *Palette) LevelColor(l models.Level) string {
	if c, ok := p.Levels[l.String()]; ok {
		return c
	}
	return p.Levels[models.LevelUnknown.String()]
}

// ClassColor returns the colour for a highlight class.
func (p *Palette) ClassColor(c models.HighlightClass) string {
	if col, ok := p.Classes[c.String()]; ok {
		return col
	}
	return p.Classes[models.ClassWord.String()]
}

// LoadPalette reads a palette file and overlays it on the defaults. Files
// ending in .toml are read as TOML, everything else as YAML.
func LoadPalette(filePath string) (*Palette, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		return LoadPaletteTOML(file)
	}
	return LoadPaletteFromReader(file)
}

// LoadPaletteFromReader parses a YAML palette from r. Keys must be level names
// (TRACE..CRITICAL, UNKNOWN) or highlight class names.
func LoadPaletteFromReader(r io.Reader) (*Palette, error) {
	return decodePalette(r, yaml.Unmarshal)
}

// LoadPaletteTOML parses a TOML palette from r.
func LoadPaletteTOML(r io.Reader) (*Palette, error) {
	return decodePalette(r, toml.Unmarshal)
}

func decodePalette(r io.Reader, unmarshal func([]byte, any) error) (*Palette, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var overlay Palette
	if err := unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}

	p := DefaultPalette()
	for name, col := range overlay.Levels {
		if _, ok := models.LevelByName(name); !ok {
			return nil, fmt.Errorf("palette: unknown level %q", name)
		}
		p.Levels[name] = col
	}
	for name, col := range overlay.Classes {
		if _, ok := models.HighlightClassByName(name); !ok {
			return nil, fmt.Errorf("palette: unknown highlight class %q", name)
		}
		p.Classes[name] = col
	}
	return p, nil
}
