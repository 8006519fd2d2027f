package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	SampleIntervalMs       int `yaml:"sample_interval_ms"`
	PruneIntervalS         int `yaml:"prune_interval_s"`
	PruneAfterMeasurements int `yaml:"prune_after_measurements"`
	SettingsSaveIntervalS  int `yaml:"settings_save_interval_s"`
	TelemetryIntervalS     int `yaml:"telemetry_interval_s"`

	PrunePolicy string    `yaml:"prune_policy"`
	Grid        Grid      `yaml:"grid"`
	Proximity   Proximity `yaml:"proximity"`
}

type Grid struct {
	Precision  int `yaml:"precision"`
	MaxPerCell int `yaml:"max_per_cell"`
}

type Proximity struct {
	MinDistanceM   float64 `yaml:"min_distance_m"`
	DefaultRadiusM float64 `yaml:"default_radius_m"`
}

// Default returns the tuning used when no document is configured
func Default() Tuning {
	return Tuning{
		SampleIntervalMs:       100,
		PruneIntervalS:         600,
		PruneAfterMeasurements: 10000,
		SettingsSaveIntervalS:  30,
		TelemetryIntervalS:     15,
		PrunePolicy:            "grid",
		Grid: Grid{
			Precision:  6,
			MaxPerCell: 4,
		},
		Proximity: Proximity{
			MinDistanceM:   250,
			DefaultRadiusM: 600000,
		},
	}
}

// Load reads a YAML tuning document. Keys missing from the document keep
// their default values. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.SampleIntervalMs <= 0:
		return errors.New("sample_interval_ms must be positive")
	case t.PruneIntervalS <= 0:
		return errors.New("prune_interval_s must be positive")
	case t.PruneAfterMeasurements <= 0:
		return errors.New("prune_after_measurements must be positive")
	case t.SettingsSaveIntervalS <= 0:
		return errors.New("settings_save_interval_s must be positive")
	case t.TelemetryIntervalS <= 0:
		return errors.New("telemetry_interval_s must be positive")
	case t.Grid.Precision < 1 || t.Grid.Precision > 12:
		return errors.New("grid.precision must be within 1-12")
	case t.Grid.MaxPerCell <= 0:
		return errors.New("grid.max_per_cell must be positive")
	case t.Proximity.MinDistanceM < 0:
		return errors.New("proximity.min_distance_m must not be negative")
	case t.Proximity.DefaultRadiusM <= 0:
		return errors.New("proximity.default_radius_m must be positive")
	}
	return nil
}

func (t Tuning) SampleInterval() time.Duration {
	return time.Duration(t.SampleIntervalMs) * time.Millisecond
}

func (t Tuning) PruneInterval() time.Duration {
	return time.Duration(t.PruneIntervalS) * time.Second
}

func (t Tuning) SettingsSaveInterval() time.Duration {
	return time.Duration(t.SettingsSaveIntervalS) * time.Second
}

func (t Tuning) TelemetryInterval() time.Duration {
	return time.Duration(t.TelemetryIntervalS) * time.Second
}
