package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestPeriphBus_Exchange(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: []conntest.IO{
		{W: []byte{0x0B, 0x0E, 0x00, 0x00}, R: []byte{0x00, 0x00, 0x34, 0x12}},
	}}}
	defer pb.Close()

	bus, err := NewPeriphBus(pb, physic.MegaHertz, spi.Mode0)
	require.NoError(t, err)
	in, err := bus.Exchange(context.Background(), []byte{0x0B, 0x0E, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x34, 0x12}, in)
}

func TestPeriphBus_ExchangeError(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	defer pb.Close()

	bus, err := NewPeriphBus(pb, physic.MegaHertz, spi.Mode0)
	require.NoError(t, err)
	_, err = bus.Exchange(context.Background(), []byte{0x0A, 0x1F, 0x52})
	assert.Error(t, err)
}

func TestPeriphBus_CanceledContext(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	defer pb.Close()
	bus, err := NewPeriphBus(pb, physic.MegaHertz, spi.Mode0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = bus.Exchange(ctx, []byte{0x0A, 0x1F, 0x52})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPeriphBus_Sequence(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: []conntest.IO{
		{W: []byte{0x0A, 0x1F, 0x52}, R: []byte{0x00, 0x00, 0x00}},
		{W: []byte{0x0B, 0x00, 0x00, 0x00, 0x00, 0x00}, R: []byte{0x00, 0x00, 0xAD, 0x1D, 0xF2, 0x02}},
	}}}
	defer pb.Close()

	bus, err := NewPeriphBus(pb, physic.MegaHertz, spi.Mode0)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = bus.Exchange(ctx, []byte{0x0A, 0x1F, 0x52})
	require.NoError(t, err)
	in, err := bus.Exchange(ctx, []byte{0x0B, 0x00, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAD, 0x1D, 0xF2, 0x02}, in[2:])
	assert.NoError(t, bus.Close())
}

func TestParseMode(t *testing.T) {
	for in, expected := range map[int]spi.Mode{0: spi.Mode0, 1: spi.Mode1, 2: spi.Mode2, 3: spi.Mode3} {
		m, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, expected, m)
	}
	_, err := ParseMode(4)
	assert.Error(t, err)
}
