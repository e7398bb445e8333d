package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/motion/accel"
	"github.com/mklimuk/motion/cmd/motion/console"
)

func runSim(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	console.SetOutput(out, errOut)
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })
	err := newApp().Run(append([]string{"motion", "--backend", "sim"}, args...))
	return out.String(), err
}

func TestCLI_SampleYAML(t *testing.T) {
	out, err := runSim(t, "sample", "--count", "2", "--interval", "1ms", "--format", "yaml")
	require.NoError(t, err)

	dec := yaml.NewDecoder(bytes.NewBufferString(out))
	var samples []accel.Sample
	for {
		var batch []accel.Sample
		if err := dec.Decode(&batch); err != nil {
			break
		}
		samples = append(samples, batch...)
	}
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.Equal(t, uint16(1000), s.Z)
		assert.Equal(t, uint16(0x0160), s.Temperature)
	}
}

func TestCLI_SampleWithoutMeasurement(t *testing.T) {
	out, err := runSim(t, "sample", "--begin=false", "--format", "yaml")
	require.NoError(t, err)
	var samples []accel.Sample
	require.NoError(t, yaml.Unmarshal([]byte(out), &samples))
	assert.Equal(t, []accel.Sample{{}}, samples)
}

func TestCLI_ID(t *testing.T) {
	out, err := runSim(t, "id", "--format", "yaml")
	require.NoError(t, err)
	var id accel.DeviceID
	require.NoError(t, yaml.Unmarshal([]byte(out), &id))
	assert.Equal(t, byte(0xAD), id.AnalogDevices)
	assert.Equal(t, byte(0xF2), id.Part)
}

func TestCLI_RegisterBurst(t *testing.T) {
	out, err := runSim(t, "reg", "burst", "0x00", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "ad 1d f2 02")
}

func TestCLI_ArgumentErrors(t *testing.T) {
	_, err := runSim(t, "axis", "w")
	assert.Error(t, err)
	_, err = runSim(t, "reg", "read", "0x1ff")
	assert.Error(t, err)
	_, err = runSim(t, "reg", "write", "0x2d")
	assert.Error(t, err)
}

func TestCLI_VersionAndVerboseFlags(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		t.Run(flag, func(t *testing.T) {
			out := &bytes.Buffer{}
			app := newApp()
			app.Writer = out
			require.NotPanics(t, func() {
				require.NoError(t, app.Run([]string{"motion", flag}))
			})
			assert.Contains(t, out.String(), "motion version")
		})
	}

	_, err := runSim(t, "--verbose", "id")
	assert.NoError(t, err)
}

func TestRun_ExitCodes(t *testing.T) {
	errOut := &bytes.Buffer{}
	console.SetOutput(&bytes.Buffer{}, errOut)
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })

	assert.Equal(t, 0, run([]string{"motion", "--backend", "sim", "id"}))
	assert.Empty(t, errOut.String())

	assert.Equal(t, 1, run([]string{"motion", "--backend", "sim", "axis", "w"}))
	assert.Equal(t, 1, strings.Count(errOut.String(), "unknown axis"))
}

func TestCLI_ResetAndMeasure(t *testing.T) {
	_, err := runSim(t, "reset", "--yes")
	assert.NoError(t, err)
	_, err = runSim(t, "--no-reset", "reset", "--yes")
	assert.NoError(t, err)
	_, err = runSim(t, "measure", "start")
	assert.NoError(t, err)
	_, err = runSim(t, "measure", "stop")
	assert.NoError(t, err)
}

func TestCLI_ConfigDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: periph\nspeed_hz: 250000\n"), 0o600))
	out, err := runSim(t, "--config", path, "config", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sim")
	assert.Contains(t, out, "speed_hz: 250000")
}

func TestParseByteAndWord(t *testing.T) {
	b, err := parseByte("0x2d")
	require.NoError(t, err)
	assert.Equal(t, byte(0x2D), b)
	_, err = parseByte("256")
	assert.Error(t, err)

	w, err := parseWord("0x1234")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)
}
