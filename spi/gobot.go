package spi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gspi "gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/motion"
)

var ErrNotStarted = errors.New("gobot spi bus not started")

var _ motion.BusCloser = &GobotBus{}

// transferConn is the subset of the gobot SPI connection used by GobotBus.
type transferConn interface {
	// ReadCommandData clocks out command and fills data with the bytes clocked in
	// at the same time. Both slices must have the same length.
	ReadCommandData(command []byte, data []byte) error
}

// GobotBus is a SPI transport on top of a gobot SPI adaptor (e.g. NanoPi, Raspberry Pi).
// Every exchange is a single full-duplex transfer of the whole frame.
//
// The connection is requested from the adaptor directly. gspi.Driver only hands out
// the adaptor itself through Connection(), not the SPI connection it opened.
type GobotBus struct {
	gspi.Config
	connector gspi.Connector

	mx   sync.Mutex
	conn transferConn
}

// NewGobotBus returns a bus bound to a gobot SPI adaptor. Call Start before use.
// Driver options (bus and chip number, mode, speed) may be supplied as in other gobot SPI drivers.
// Mode defaults to 0 and speed to 1 MHz.
func NewGobotBus(adaptor gspi.Connector, opts ...func(gspi.Config)) *GobotBus {
	b := &GobotBus{Config: gspi.NewConfig(), connector: adaptor}
	for _, opt := range opts {
		opt(b)
	}
	// mode 0 (CPOL=0, CPHA=0), up to 8 MHz per datasheet
	if b.GetModeOrDefault(gspi.NotInitialized) == gspi.NotInitialized {
		b.SetMode(0)
	}
	if b.GetSpeedOrDefault(0) <= 0 {
		b.SetSpeed(1_000_000)
	}
	return b
}

// Start opens the SPI connection on the adaptor.
func (b *GobotBus) Start() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connector.GetSpiConnection(
		b.GetBusNumberOrDefault(b.connector.SpiDefaultBusNumber()),
		b.GetChipNumberOrDefault(b.connector.SpiDefaultChipNumber()),
		b.GetModeOrDefault(b.connector.SpiDefaultMode()),
		b.GetBitCountOrDefault(b.connector.SpiDefaultBitCount()),
		b.GetSpeedOrDefault(b.connector.SpiDefaultMaxSpeed()),
	)
	if err != nil {
		return fmt.Errorf("could not open gobot spi connection: %w", err)
	}
	b.conn = conn
	return nil
}

func (b *GobotBus) Exchange(ctx context.Context, out []byte) ([]byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.conn == nil {
		return nil, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := make([]byte, len(out))
	if len(out) == 0 {
		return in, nil
	}
	if err := b.conn.ReadCommandData(out, in); err != nil {
		return nil, fmt.Errorf("spi transfer failed: %w", err)
	}
	return in, nil
}

// Close detaches the bus. The connection itself is cached by the adaptor and closed
// when the adaptor is finalized.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.conn = nil
	return nil
}
