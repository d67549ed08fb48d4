package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loglens/backend/internal/models"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	if p.LevelColor(models.LevelError) != "#ff0000" {
		t.Errorf("Error colour = %q", p.LevelColor(models.LevelError))
	}
	if p.LevelColor(models.LevelCritical) != p.LevelColor(models.LevelFatal) {
		t.Error("Critical and Fatal should share a colour")
	}
	if p.ClassColor(models.ClassKeyword) == "" {
		t.Error("Expected a keyword colour")
	}
}

func TestLoadPaletteFromReader(t *testing.T) {
	t.Run("overlay", func(t *testing.T) {
		yamlContent := `
levels:
  ERROR: "#aa0000"
classes:
  keyword: "33"
`
		p, err := LoadPaletteFromReader(strings.NewReader(yamlContent))
		if err != nil {
			t.Fatalf("LoadPaletteFromReader failed: %v", err)
		}
		if p.LevelColor(models.LevelError) != "#aa0000" {
			t.Errorf("Error colour = %q", p.LevelColor(models.LevelError))
		}
		if p.ClassColor(models.ClassKeyword) != "33" {
			t.Errorf("Keyword colour = %q", p.ClassColor(models.ClassKeyword))
		}
		if p.LevelColor(models.LevelInfo) != "#00ff00" {
			t.Errorf("Unset levels keep defaults, got %q", p.LevelColor(models.LevelInfo))
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := LoadPaletteFromReader(strings.NewReader("levels:\n  LOUD: red\n"))
		if err == nil {
			t.Error("Expected error for unknown level")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadPaletteFromReader(strings.NewReader("levels: [unclosed"))
		if err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestLoadPaletteTOML(t *testing.T) {
	tomlContent := `
[levels]
WARNING = "#ffaa00"

[classes]
string = "214"
`
	p, err := LoadPaletteTOML(strings.NewReader(tomlContent))
	if err != nil {
		t.Fatalf("LoadPaletteTOML failed: %v", err)
	}
	if p.LevelColor(models.LevelWarning) != "#ffaa00" {
		t.Errorf("Warning colour = %q", p.LevelColor(models.LevelWarning))
	}
	if p.ClassColor(models.ClassString) != "214" {
		t.Errorf("String colour = %q", p.ClassColor(models.ClassString))
	}

	if _, err := LoadPaletteTOML(strings.NewReader("[classes]\nshiny = \"1\"\n")); err == nil {
		t.Error("Expected error for unknown class")
	}
}

func TestLoadPalette_ByExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "palette.toml")
	yamlPath := filepath.Join(dir, "palette.yaml")
	if err := os.WriteFile(tomlPath, []byte("[levels]\nDEBUG = \"#010101\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("levels:\n  DEBUG: \"#020202\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPalette(tomlPath)
	if err != nil {
		t.Fatalf("LoadPalette(toml) failed: %v", err)
	}
	if p.LevelColor(models.LevelDebug) != "#010101" {
		t.Errorf("TOML Debug colour = %q", p.LevelColor(models.LevelDebug))
	}

	p, err = LoadPalette(yamlPath)
	if err != nil {
		t.Fatalf("LoadPalette(yaml) failed: %v", err)
	}
	if p.LevelColor(models.LevelDebug) != "#020202" {
		t.Errorf("YAML Debug colour = %q", p.LevelColor(models.LevelDebug))
	}

	if _, err := LoadPalette(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
