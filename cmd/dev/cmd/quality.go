package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (the driver is tested against the simulated ADXL362)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
}

// SmokeCmd runs the built cli against the simulated device.
func SmokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the built cli against the simulated accelerometer",
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := cmd.Flags().GetString("binary")
			if err != nil {
				return fmt.Errorf("could not get binary flag: %w", err)
			}
			steps := [][]string{
				{"--backend", "sim", "id"},
				{"--backend", "sim", "reg", "burst", "0x00", "4"},
				{"--backend", "sim", "sample", "--count", "3", "--interval", "10ms"},
			}
			for _, step := range steps {
				slog.Info("running", "binary", bin, "args", step)
				run := exec.CommandContext(cmd.Context(), bin, step...)
				run.Stdout = os.Stdout
				run.Stderr = os.Stderr
				if err := run.Run(); err != nil {
					return fmt.Errorf("smoke step %v failed: %w", step, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("binary", binaryPath, "cli binary to run")
	return cmd
}
