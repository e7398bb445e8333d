package gpio

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/motion"
)

var _ motion.ChipSelect = &PeriphLine{}
var _ motion.ChipSelect = &GobotLine{}

// PeriphLine drives a chip-select pin through periph.io.
type PeriphLine struct {
	pin gpio.PinOut
}

// OpenPeriphLine looks up a pin by name (e.g. "GPIO8", "P1_24") and parks it high.
func OpenPeriphLine(name string) (*PeriphLine, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("could not find gpio pin %q", name)
	}
	return NewPeriphLine(pin)
}

// NewPeriphLine wraps pin and drives it to the idle (high) level.
func NewPeriphLine(pin gpio.PinOut) (*PeriphLine, error) {
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("could not set chip select %s idle: %w", pin, err)
	}
	return &PeriphLine{pin: pin}, nil
}

func (l *PeriphLine) SetLevel(ctx context.Context, level motion.Level) error {
	return l.pin.Out(gpio.Level(level))
}

// DigitalWriter is implemented by gobot adaptors with GPIO support.
type DigitalWriter interface {
	DigitalWrite(pin string, val byte) error
}

// GobotLine drives a chip-select pin through a gobot adaptor.
type GobotLine struct {
	writer DigitalWriter
	pin    string
}

func NewGobotLine(writer DigitalWriter, pin string) (*GobotLine, error) {
	l := &GobotLine{writer: writer, pin: pin}
	if err := l.SetLevel(context.Background(), motion.High); err != nil {
		return nil, fmt.Errorf("could not set chip select %s idle: %w", pin, err)
	}
	return l, nil
}

func (l *GobotLine) SetLevel(ctx context.Context, level motion.Level) error {
	var val byte
	if level == motion.High {
		val = 1
	}
	return l.writer.DigitalWrite(l.pin, val)
}

// NopLine is used when the SPI controller drives chip-select on its own.
type NopLine struct{}

func (NopLine) SetLevel(context.Context, motion.Level) error { return nil }
