package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named difficulty tuning that overrides the release and meter
// settings of a Config. Zero-valued fields leave the Config untouched.
type Preset struct {
	PerfectZoneStart float64 `yaml:"perfect_zone_start"`
	PerfectZoneEnd   float64 `yaml:"perfect_zone_end"`
	MeterFillMS      int     `yaml:"meter_fill_ms"`
	StrongMax        float64 `yaml:"strong_max_multiplier"`
}

// Presets maps preset names to tunings.
type Presets map[string]Preset

// LoadPresets reads a YAML file of named difficulty presets, e.g.
//
//	rookie:
//	  perfect_zone_start: 0.75
//	  perfect_zone_end: 0.95
//	pro:
//	  perfect_zone_start: 0.88
//	  perfect_zone_end: 0.93
//	  meter_fill_ms: 900
func LoadPresets(path string) (Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	var p Presets
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	for name, preset := range p {
		if err := preset.validate(); err != nil {
			return nil, fmt.Errorf("%w: preset %q: %w", ErrInvalidPreset, name, err)
		}
	}
	return p, nil
}

func (p Preset) validate() error {
	set := p.PerfectZoneStart != 0 || p.PerfectZoneEnd != 0
	if set && !(p.PerfectZoneStart > 0 && p.PerfectZoneStart < p.PerfectZoneEnd && p.PerfectZoneEnd < 1) {
		return fmt.Errorf("perfect zone must satisfy 0 < start < end < 1, got [%v, %v]",
			p.PerfectZoneStart, p.PerfectZoneEnd)
	}
	if p.MeterFillMS < 0 {
		return fmt.Errorf("meter_fill_ms must not be negative, got %d", p.MeterFillMS)
	}
	if p.StrongMax < 0 {
		return fmt.Errorf("strong_max_multiplier must not be negative, got %v", p.StrongMax)
	}
	return nil
}

// Apply overlays the preset's non-zero fields onto cfg.
func (p Preset) Apply(cfg *Config) {
	if p.PerfectZoneStart > 0 && p.PerfectZoneEnd > 0 {
		cfg.PerfectZoneStart = p.PerfectZoneStart
		cfg.PerfectZoneEnd = p.PerfectZoneEnd
	}
	if p.MeterFillMS > 0 {
		cfg.MeterFillMS = p.MeterFillMS
	}
	if p.StrongMax > 0 {
		cfg.StrongMaxMultiplier = p.StrongMax
	}
}
