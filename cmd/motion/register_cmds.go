package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/motion/cmd/motion/console"
)

var regCmd = cli.Command{
	Name:    "register",
	Aliases: []string{"reg"},
	Usage:   "raw register access",
	Subcommands: []*cli.Command{
		&regReadCmd,
		&regWriteCmd,
		&regRead16Cmd,
		&regWrite16Cmd,
		&regBurstCmd,
	},
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", s, err)
	}
	return byte(v), nil
}

func parseWord(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16-bit value %q: %w", s, err)
	}
	return uint16(v), nil
}

var regReadCmd = cli.Command{
	Name:      "read",
	Usage:     "read a single register",
	ArgsUsage: "<address>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		addr, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode address: %v", err)
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		v, err := dev.ReadRegister(commandContext(c), addr)
		if err != nil {
			return console.Exit(1, "could not read register: %v", err)
		}
		console.Printf("%s: %s\n", console.Hex(addr), console.Hex(v))
		return nil
	},
}

var regWriteCmd = cli.Command{
	Name:      "write",
	Usage:     "write a single register",
	ArgsUsage: "<address> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		addr, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode address: %v", err)
		}
		val, err := parseByte(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "could not decode value: %v", err)
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		if err := dev.WriteRegister(commandContext(c), addr, val); err != nil {
			return console.Exit(1, "could not write register: %v", err)
		}
		console.Printf("wrote %s to %s\n", console.Hex(val), console.Hex(addr))
		return nil
	},
}

var regRead16Cmd = cli.Command{
	Name:      "read16",
	Usage:     "read a little-endian register pair",
	ArgsUsage: "<address>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		addr, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode address: %v", err)
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		v, err := dev.ReadRegisterPair(commandContext(c), addr)
		if err != nil {
			return console.Exit(1, "could not read register pair: %v", err)
		}
		console.Printf("%s: %s\n", console.Hex(addr), console.Hex(v))
		return nil
	},
}

var regWrite16Cmd = cli.Command{
	Name:      "write16",
	Usage:     "write a little-endian register pair",
	ArgsUsage: "<address> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		addr, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode address: %v", err)
		}
		val, err := parseWord(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "could not decode value: %v", err)
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		if err := dev.WriteRegisterPair(commandContext(c), addr, val); err != nil {
			return console.Exit(1, "could not write register pair: %v", err)
		}
		console.Printf("wrote %s to %s\n", console.Hex(val), console.Hex(addr))
		return nil
	},
}

var regBurstCmd = cli.Command{
	Name:      "burst",
	Usage:     "read consecutive registers in one transaction",
	ArgsUsage: "<address> <count>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		addr, err := parseByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode address: %v", err)
		}
		count, err := parseWord(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "could not decode count: %v", err)
		}
		dev, closeDev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer closeDev()
		data, err := dev.BurstRead(commandContext(c), addr, count)
		if err != nil {
			return console.Exit(1, "could not burst read: %v", err)
		}
		console.Printf("%s", hex.Dump(data))
		return nil
	},
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "configuration helpers",
	Subcommands: []*cli.Command{
		{
			Name:  "dump",
			Usage: "print the effective configuration as YAML",
			Action: func(c *cli.Context) error {
				if err := settings.Encode(console.Writer()); err != nil {
					return console.Exit(1, "encoding error: %s", console.Red(err))
				}
				return nil
			},
		},
	},
}
