package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/motion/cmd/motion/console"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the accelerometer",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		ok, err := console.Confirm("soft reset the device?", c.Bool("yes"))
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if !ok {
			return nil
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		// a fresh connection has already reset the device unless asked not to
		if c.Bool("no-reset") {
			if err := dev.SoftReset(commandContext(c)); err != nil {
				return console.Exit(1, "error resetting device: %s", console.Red(err))
			}
		}
		console.PInfof(console.PictoReset, "device reset")
		return nil
	},
}

var measureCmd = cli.Command{
	Name:  "measure",
	Usage: "switch measurement mode",
	Subcommands: []*cli.Command{
		&measureStartCmd,
		&measureStopCmd,
	},
}

var measureStartCmd = cli.Command{
	Name:  "start",
	Usage: "enable measurement mode",
	Action: func(c *cli.Context) error {
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		if err := dev.BeginMeasurement(commandContext(c)); err != nil {
			return console.Exit(1, "error enabling measurement: %s", console.Red(err))
		}
		console.PInfof(console.PictoPlay, "measurement %s", console.Green("on"))
		return nil
	},
}

var measureStopCmd = cli.Command{
	Name:  "stop",
	Usage: "put the device in standby",
	Action: func(c *cli.Context) error {
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		if err := dev.EndMeasurement(commandContext(c)); err != nil {
			return console.Exit(1, "error entering standby: %s", console.Red(err))
		}
		console.PInfof(console.PictoStop, "measurement %s", console.Yellow("off"))
		return nil
	},
}

var idCmd = cli.Command{
	Name:  "id",
	Usage: "read and verify device identification registers",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText, Usage: "output format: text or yaml"},
	},
	Action: func(c *cli.Context) error {
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		id, err := dev.VerifyDeviceID(commandContext(c))
		if c.String("format") == formatYAML {
			if encErr := encodeYAML(id); encErr != nil {
				return console.Exit(1, "encoding error: %s", console.Red(encErr))
			}
		} else {
			console.PInfof(console.PictoChip, "devid_ad=%s devid_mst=%s partid=%s revid=%s",
				console.Hex(id.AnalogDevices), console.Hex(id.MEMS), console.Hex(id.Part), console.Hex(id.Revision))
		}
		if err != nil {
			return console.Exit(1, "device check failed: %s", console.Red(err))
		}
		return nil
	},
}
