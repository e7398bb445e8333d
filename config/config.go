package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendPeriph = "periph"
	BackendGobot  = "gobot"
	BackendSim    = "sim"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Device describes how to reach an ADXL362.
type Device struct {
	Backend          string        `yaml:"backend"`
	Device           string        `yaml:"device"`
	Bus              int           `yaml:"bus"`
	Chip             int           `yaml:"chip"`
	ChipSelect       string        `yaml:"chip_select"`
	SpeedHz          int64         `yaml:"speed_hz"`
	Mode             int           `yaml:"mode"`
	ResetDelay       time.Duration `yaml:"reset_delay"`
	MeasurementDelay time.Duration `yaml:"measurement_delay"`
}

// Default returns settings for spidev0.0 with chip-select on GPIO8 (header pin 24).
func Default() Device {
	return Device{
		Backend:          BackendPeriph,
		Device:           "/dev/spidev0.0",
		ChipSelect:       "GPIO8",
		SpeedHz:          1_000_000,
		Mode:             0,
		ResetDelay:       10 * time.Millisecond,
		MeasurementDelay: 10 * time.Millisecond,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return Device{}, fmt.Errorf("could not open config file %q: %w", path, err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Device{}, fmt.Errorf("could not load config file %q: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults and validates the result.
func Decode(r io.Reader) (Device, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Device{}, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Device{}, err
	}
	return cfg, nil
}

func (d Device) Validate() error {
	switch d.Backend {
	case BackendPeriph, BackendGobot, BackendSim:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, d.Backend)
	}
	if d.Mode < 0 || d.Mode > 3 {
		return fmt.Errorf("%w: spi mode %d out of range 0-3", ErrInvalidConfig, d.Mode)
	}
	if d.SpeedHz <= 0 {
		return fmt.Errorf("%w: speed must be positive", ErrInvalidConfig)
	}
	if d.ResetDelay < 0 || d.MeasurementDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Encode writes the configuration as YAML.
func (d Device) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	return enc.Close()
}
