package main

import (
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/cmd/motion/console"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

func encodeYAML(v any) error {
	enc := yaml.NewEncoder(console.Writer())
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var axisCmd = cli.Command{
	Name:      "axis",
	Usage:     "read a single axis (x, y or z)",
	ArgsUsage: "<x|y|z>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		axis, err := accel.ParseAxis(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		v, err := dev.ReadAxis(commandContext(c), axis)
		if err != nil {
			return console.Exit(1, "error reading axis: %s", console.Red(err))
		}
		console.PInfof(console.PictoAxis, "%s %s", axis, console.Hex(v))
		return nil
	},
}

var temperatureCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read the raw temperature registers",
	Action: func(c *cli.Context) error {
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		v, err := dev.ReadTemperature(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading temperature: %s", console.Red(err))
		}
		console.PInfof(console.PictoThermometer, "%s", console.Hex(v))
		return nil
	},
}

var sampleCmd = cli.Command{
	Name:    "sample",
	Aliases: []string{"rd"},
	Usage:   "read x, y, z and temperature in one burst",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "begin", Value: true, Usage: "enable measurement mode before sampling"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of samples, 0 for unlimited"},
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Value: 100 * time.Millisecond, Usage: "delay between samples"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText, Usage: "output format: text or yaml"},
	},
	Action: func(c *cli.Context) error {
		count := c.Int("count")
		if c.Duration("interval") <= 0 {
			return console.Exit(1, "interval must be positive")
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		ctx := commandContext(c)
		if c.Bool("begin") {
			if err := dev.BeginMeasurement(ctx); err != nil {
				return console.Exit(1, "error enabling measurement: %s", console.Red(err))
			}
		}
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for i := 0; count == 0 || i < count; i++ {
			if i > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
			s, err := dev.ReadAll(ctx)
			if err != nil {
				return console.Exit(1, "error reading sample: %s", console.Red(err))
			}
			if err := printSample(c.String("format"), s); err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
		}
		return nil
	},
}

func printSample(format string, s accel.Sample) error {
	if format == formatYAML {
		return encodeYAML([]accel.Sample{s})
	}
	console.Printf("%s x=%s y=%s z=%s %s %s\n", console.PictoAxis,
		console.Hex(s.X), console.Hex(s.Y), console.Hex(s.Z), console.PictoThermometer, console.Hex(s.Temperature))
	return nil
}
