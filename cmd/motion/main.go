package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/motion/cmd/motion/console"
	"github.com/mklimuk/motion/config"
)

var version string
var commit string
var date string

// settings is the effective device configuration after config file and flags.
var settings = config.Default()

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			console.Errorf("%v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "motion"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "ADXL362 accelerometer cli"
	// exit codes are mapped in run
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Usage: "enable verbose logging and transaction tracing"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML device configuration file", EnvVars: []string{"MOTION_CONFIG"}},
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "bus backend: periph, gobot or sim"},
		&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "spi port name for the periph backend"},
		&cli.IntFlag{Name: "bus", Usage: "spi bus number for the gobot backend"},
		&cli.IntFlag{Name: "chip", Usage: "spi chip number for the gobot backend"},
		&cli.StringFlag{Name: "cs", Usage: "chip select gpio (empty when the controller drives it)"},
		&cli.Int64Flag{Name: "speed", Usage: "spi clock in Hz"},
		&cli.IntFlag{Name: "mode", Usage: "spi mode 0-3"},
		&cli.BoolFlag{Name: "no-reset", Usage: "do not soft reset the device when connecting"},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		cfg, err := resolveSettings(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		settings = cfg
		slog.Debug("device settings", "backend", cfg.Backend, "device", cfg.Device, "cs", cfg.ChipSelect, "speed", cfg.SpeedHz)
		return nil
	}
	app.Commands = cli.Commands{
		&resetCmd,
		&measureCmd,
		&axisCmd,
		&temperatureCmd,
		&sampleCmd,
		&idCmd,
		&regCmd,
		&configCmd,
	}
	return app
}

func resolveSettings(c *cli.Context) (config.Device, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("chip") {
		cfg.Chip = c.Int("chip")
	}
	if c.IsSet("cs") {
		cfg.ChipSelect = c.String("cs")
	}
	if c.IsSet("speed") {
		cfg.SpeedHz = c.Int64("speed")
	}
	if c.IsSet("mode") {
		cfg.Mode = c.Int("mode")
	}
	return cfg, cfg.Validate()
}
