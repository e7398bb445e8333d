package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/urfave/cli/v2"
	gspi "gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/config"
	"github.com/mklimuk/motion/gpio"
	"github.com/mklimuk/motion/snsctx"
	"github.com/mklimuk/motion/spi"
)

// commandContext carries the verbose flag and logger into driver calls.
func commandContext(c *cli.Context) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return snsctx.WithLogger(ctx, slog.Default())
}

// openDevice connects to the ADXL362 described by settings. The returned closer
// releases the bus and any adaptor.
func openDevice(c *cli.Context) (*accel.ADXL362, func(), error) {
	bus, cs, release, err := openTransport(settings)
	if err != nil {
		return nil, nil, err
	}
	opts := []accel.ADXL362Opt{
		accel.WithResetDelay(settings.ResetDelay),
		accel.WithMeasurementDelay(settings.MeasurementDelay),
	}
	if c.Bool("no-reset") {
		opts = append(opts, accel.WithoutReset())
	}
	dev, err := accel.NewADXL362Context(commandContext(c), bus, cs, opts...)
	if err != nil {
		if bc, ok := bus.(motion.BusCloser); ok {
			_ = bc.Close()
		}
		release()
		return nil, nil, err
	}
	closer := func() {
		if err := dev.Close(); err != nil {
			slog.Error("could not close bus", "error", err)
		}
		release()
	}
	return dev, closer, nil
}

func openTransport(cfg config.Device) (motion.SPIBus, motion.ChipSelect, func(), error) {
	switch cfg.Backend {
	case config.BackendSim:
		sim := accel.NewSimulatedADXL362(simulatedMotion(time.Now()))
		return sim, sim, func() {}, nil
	case config.BackendGobot:
		adaptor := nanopi.NewNeoAdaptor()
		if err := adaptor.Connect(); err != nil {
			return nil, nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		release := func() {
			if err := adaptor.Finalize(); err != nil {
				slog.Error("could not finalize adaptor", "error", err)
			}
		}
		bus := spi.NewGobotBus(adaptor,
			gspi.WithBusNumber(cfg.Bus),
			gspi.WithChipNumber(cfg.Chip),
			gspi.WithMode(cfg.Mode),
			gspi.WithSpeed(cfg.SpeedHz),
		)
		if err := bus.Start(); err != nil {
			release()
			return nil, nil, nil, err
		}
		var cs motion.ChipSelect = gpio.NopLine{}
		if cfg.ChipSelect != "" {
			line, err := gpio.NewGobotLine(adaptor, cfg.ChipSelect)
			if err != nil {
				_ = bus.Close()
				release()
				return nil, nil, nil, err
			}
			cs = line
		}
		return bus, cs, release, nil
	default:
		mode, err := spi.ParseMode(cfg.Mode)
		if err != nil {
			return nil, nil, nil, err
		}
		bus, err := spi.OpenPeriphBus(cfg.Device, physic.Frequency(cfg.SpeedHz)*physic.Hertz, mode)
		if err != nil {
			return nil, nil, nil, err
		}
		var cs motion.ChipSelect = gpio.NopLine{}
		if cfg.ChipSelect != "" {
			line, err := gpio.OpenPeriphLine(cfg.ChipSelect)
			if err != nil {
				_ = bus.Close()
				return nil, nil, nil, err
			}
			cs = line
		}
		return bus, cs, func() {}, nil
	}
}

// simulatedMotion rocks the sensor slowly around X and Y with gravity on Z
// (about 1000 LSB at the default ±2 g range).
func simulatedMotion(start time.Time) accel.SampleBehaviorFunc {
	return func() accel.Sample {
		t := time.Since(start).Seconds()
		return accel.Sample{
			X:           uint16(int16(120 * math.Sin(t))),
			Y:           uint16(int16(120 * math.Cos(t))),
			Z:           1000,
			Temperature: 0x0160,
		}
	}
}
