package spi

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/motion"
)

var _ motion.BusCloser = &PeriphBus{}

// PeriphBus is a SPI transport backed by periph.io host drivers (spidev on Linux).
type PeriphBus struct {
	port spi.Port
	conn spi.Conn
}

// OpenPeriphBus initialises the host and opens the SPI port by name, e.g. "/dev/spidev0.0"
// or "SPI0.0". An empty name selects the first available port.
func OpenPeriphBus(dev string, speed physic.Frequency, mode spi.Mode) (*PeriphBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %q: %w", dev, err)
	}
	bus, err := NewPeriphBus(port, speed, mode)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return bus, nil
}

// NewPeriphBus connects to an already opened port with 8 bits per word.
func NewPeriphBus(port spi.Port, speed physic.Frequency, mode spi.Mode) (*PeriphBus, error) {
	conn, err := port.Connect(speed, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("could not configure spi port: %w", err)
	}
	return &PeriphBus{port: port, conn: conn}, nil
}

func (b *PeriphBus) Exchange(ctx context.Context, out []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := make([]byte, len(out))
	if err := b.conn.Tx(out, in); err != nil {
		return nil, fmt.Errorf("could not exchange on spi bus: %w", err)
	}
	return in, nil
}

// Close releases the port when it was opened by this package.
func (b *PeriphBus) Close() error {
	if c, ok := b.port.(spi.PortCloser); ok {
		return c.Close()
	}
	return nil
}

// ParseMode converts 0..3 into a periph SPI mode.
func ParseMode(mode int) (spi.Mode, error) {
	switch mode {
	case 0:
		return spi.Mode0, nil
	case 1:
		return spi.Mode1, nil
	case 2:
		return spi.Mode2, nil
	case 3:
		return spi.Mode3, nil
	}
	return 0, fmt.Errorf("invalid spi mode %d", mode)
}
