package config

import (
	"sort"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/render"
	"github.com/san-kum/chapkde/internal/storage"
)

var Presets = map[string]*Config{
	"draft": {
		Manifest: manifest.DefaultFile, OutputRoot: storage.DefaultRoot,
		Bandwidth: density.RuleScott, GridPoints: 150, Renderer: "png",
		Image: render.Options{WidthIn: 6.4, HeightIn: 4.8, DPI: 100},
	},
	"publication": {
		Manifest: manifest.DefaultFile, OutputRoot: storage.DefaultRoot,
		Bandwidth: density.RuleSilverman, GridPoints: density.DefaultGridPoints, Renderer: "png",
		Image: render.Options{WidthIn: 6.4, HeightIn: 4.8, DPI: 600},
	},
	"batch": {
		Manifest: manifest.DefaultFile, OutputRoot: storage.DefaultRoot, Mode: "full",
		Bandwidth: density.RuleSilverman, GridPoints: density.DefaultGridPoints, Renderer: "none",
		Image: render.DefaultOptions(),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
