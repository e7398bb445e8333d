package spi

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gspi "gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
)

// spidevSim behaves like a kernel spidev: the controller drives chip select around
// every transfer and tx and rx must have the same length.
type spidevSim struct {
	device *accel.SimulatedADXL362
	err    error
	closed bool
}

func (s *spidevSim) TxRx(tx []byte, rx []byte) error {
	if s.err != nil {
		return s.err
	}
	if rx != nil && len(rx) != len(tx) {
		return fmt.Errorf("length of tx (%d) must be the same as length of rx (%d)", len(tx), len(rx))
	}
	ctx := context.Background()
	_ = s.device.SetLevel(ctx, motion.Low)
	defer func() { _ = s.device.SetLevel(ctx, motion.High) }()
	in, err := s.device.Exchange(ctx, tx)
	if err != nil {
		return err
	}
	copy(rx, in)
	return nil
}

func (s *spidevSim) Close() error {
	s.closed = true
	return nil
}

// fakeAdaptor is a gobot SPI connector handing out spidevSim connections.
type fakeAdaptor struct {
	device *accel.SimulatedADXL362
	err    error

	bus, chip, mode, bits int
	speed                 int64
}

func (a *fakeAdaptor) GetSpiConnection(bus, chip, mode, bits int, maxSpeed int64) (gspi.Connection, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.bus, a.chip, a.mode, a.bits, a.speed = bus, chip, mode, bits, maxSpeed
	return gspi.NewConnection(&spidevSim{device: a.device}), nil
}

func (a *fakeAdaptor) SpiDefaultBusNumber() int { return 0 }
func (a *fakeAdaptor) SpiDefaultChipNumber() int { return 0 }
func (a *fakeAdaptor) SpiDefaultMode() int { return 3 }
func (a *fakeAdaptor) SpiDefaultBitCount() int { return 8 }
func (a *fakeAdaptor) SpiDefaultMaxSpeed() int64 { return 500000 }

type controllerSelect struct{}

func (controllerSelect) SetLevel(context.Context, motion.Level) error { return nil }

func newGobotSim(t *testing.T) (*accel.ADXL362, *accel.SimulatedADXL362) {
	t.Helper()
	sim := accel.NewSimulatedADXL362(nil)
	bus := &GobotBus{conn: gspi.NewConnection(&spidevSim{device: sim})}
	dev, err := accel.NewADXL362(bus, controllerSelect{}, accel.WithSleeper(func(time.Duration) {}))
	require.NoError(t, err)
	return dev, sim
}

func TestGobotBus_ReadRegister(t *testing.T) {
	dev, _ := newGobotSim(t)
	ctx := context.Background()

	v, err := dev.ReadRegister(ctx, accel.RegPartID)
	require.NoError(t, err)
	assert.Equal(t, byte(0xF2), v)

	require.NoError(t, dev.WriteRegister(ctx, 0x20, 0x5A))
	v, err = dev.ReadRegister(ctx, 0x20)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5A), v)
}

func TestGobotBus_ReadRegisterPair(t *testing.T) {
	dev, sim := newGobotSim(t)
	sim.SetRegisters(accel.RegXDataL, 0x34, 0x12)

	x, err := dev.ReadAxis(context.Background(), accel.AxisX)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), x)
}

func TestGobotBus_BurstRead(t *testing.T) {
	dev, sim := newGobotSim(t)
	sim.SetSample(accel.Sample{X: 0x0102, Y: 0x0304, Z: 0x0506, Temperature: 0x0708})

	data, err := dev.BurstRead(context.Background(), accel.RegXDataL, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}, data)

	s, err := dev.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accel.Sample{X: 0x0102, Y: 0x0304, Z: 0x0506, Temperature: 0x0708}, s)
}

func TestGobotBus_SendsWholeFrame(t *testing.T) {
	sim := accel.NewSimulatedADXL362(nil)
	bus := &GobotBus{conn: gspi.NewConnection(&spidevSim{device: sim})}

	in, err := bus.Exchange(context.Background(), []byte{0x0B, 0x02, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xF2}, in)
	events := sim.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []byte{0x0B, 0x02, 0x00}, events[1].Tx)
}

func TestGobotBus_Errors(t *testing.T) {
	connErr := errors.New("spidev closed")
	bus := &GobotBus{conn: gspi.NewConnection(&spidevSim{device: accel.NewSimulatedADXL362(nil), err: connErr})}

	_, err := bus.Exchange(context.Background(), []byte{0x0A, 0x2D, 0x02})
	assert.ErrorIs(t, err, connErr)
}

func TestGobotBus_CanceledContext(t *testing.T) {
	sim := accel.NewSimulatedADXL362(nil)
	bus := &GobotBus{conn: gspi.NewConnection(&spidevSim{device: sim})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bus.Exchange(ctx, []byte{0x0B, 0x00, 0x00})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sim.Events())
}

func TestGobotBus_Start(t *testing.T) {
	tests := []struct {
		name  string
		opts  []func(gspi.Config)
		bus   int
		chip  int
		mode  int
		speed int64
	}{
		{"defaults", nil, 0, 0, 0, 1_000_000},
		{"configured", []func(gspi.Config){gspi.WithBusNumber(1), gspi.WithChipNumber(1), gspi.WithMode(3), gspi.WithSpeed(4_000_000)}, 1, 1, 3, 4_000_000},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			adaptor := &fakeAdaptor{device: accel.NewSimulatedADXL362(nil)}
			bus := NewGobotBus(adaptor, test.opts...)
			require.NoError(t, bus.Start())
			assert.Equal(t, test.bus, adaptor.bus)
			assert.Equal(t, test.chip, adaptor.chip)
			assert.Equal(t, test.mode, adaptor.mode)
			assert.Equal(t, 8, adaptor.bits)
			assert.Equal(t, test.speed, adaptor.speed)

			in, err := bus.Exchange(context.Background(), []byte{0x0B, 0x00, 0x00})
			require.NoError(t, err)
			assert.Equal(t, byte(0xAD), in[2])

			require.NoError(t, bus.Close())
			_, err = bus.Exchange(context.Background(), []byte{0x0B, 0x00, 0x00})
			assert.ErrorIs(t, err, ErrNotStarted)
		})
	}
}

func TestGobotBus_StartError(t *testing.T) {
	openErr := errors.New("no such device")
	bus := NewGobotBus(&fakeAdaptor{err: openErr})
	assert.ErrorIs(t, bus.Start(), openErr)
}

func TestGobotBus_NotStarted(t *testing.T) {
	_, err := (&GobotBus{}).Exchange(context.Background(), []byte{0x0B})
	assert.ErrorIs(t, err, ErrNotStarted)
}
