package accel

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/motion"
	"github.com/mklimuk/motion/snsctx"
)

// SPI instructions (datasheet Table 11)
const (
	cmdWrite byte = 0x0A
	cmdRead  byte = 0x0B
)

// Register map
const (
	RegDevIDAD    byte = 0x00
	RegDevIDMST   byte = 0x01
	RegPartID     byte = 0x02
	RegRevID      byte = 0x03
	RegXDataL     byte = 0x0E
	RegYDataL     byte = 0x10
	RegZDataL     byte = 0x12
	RegTempL      byte = 0x14
	RegSoftReset  byte = 0x1F
	RegPowerCtl   byte = 0x2D
	softResetCode byte = 0x52
)

const (
	powerCtlMeasure     byte = 0x02
	powerCtlMeasureMask byte = 0x03
)

// burst of XDATA_L..TEMP_H
const sampleLen = 8

const (
	expectedDevIDAD  = 0xAD
	expectedDevIDMST = 0x1D
	expectedPartID   = 0xF2
)

var ErrUnknownAxis = errors.New("adxl362: unknown axis")
var ErrWrongDevice = errors.New("adxl362: unexpected device id")

type Axis byte

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", byte(a))
	}
}

// ParseAxis accepts x, y or z in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

func (a Axis) register() (byte, error) {
	switch a {
	case AxisX:
		return RegXDataL, nil
	case AxisY:
		return RegYDataL, nil
	case AxisZ:
		return RegZDataL, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownAxis, byte(a))
}

// Sample is a set of raw register values captured in one burst.
type Sample struct {
	X           uint16 `yaml:"x"`
	Y           uint16 `yaml:"y"`
	Z           uint16 `yaml:"z"`
	Temperature uint16 `yaml:"temperature"`
}

func (s Sample) String() string {
	return fmt.Sprintf("X:%#04x Y:%#04x Z:%#04x T:%#04x", s.X, s.Y, s.Z, s.Temperature)
}

// DeviceID holds the identification registers 0x00..0x03.
type DeviceID struct {
	AnalogDevices byte `yaml:"devid_ad"`
	MEMS          byte `yaml:"devid_mst"`
	Part          byte `yaml:"partid"`
	Revision      byte `yaml:"revid"`
}

type ADXL362Opts struct {
	ResetDelay       time.Duration
	MeasurementDelay time.Duration
	Sleep            motion.Sleeper
	SkipReset        bool
}

type ADXL362Opt func(*ADXL362Opts)

// WithResetDelay sets how long the driver waits after a soft reset.
func WithResetDelay(delay time.Duration) ADXL362Opt {
	return func(o *ADXL362Opts) {
		o.ResetDelay = delay
	}
}

func WithMeasurementDelay(delay time.Duration) ADXL362Opt {
	return func(o *ADXL362Opts) {
		o.MeasurementDelay = delay
	}
}

func WithSleeper(sleep motion.Sleeper) ADXL362Opt {
	return func(o *ADXL362Opts) {
		o.Sleep = sleep
	}
}

// WithoutReset skips the soft reset normally issued by NewADXL362.
func WithoutReset() ADXL362Opt {
	return func(o *ADXL362Opts) {
		o.SkipReset = true
	}
}

// ADXL362 represents Analog Devices ADXL362 3-axis accelerometer on SPI.
//
// Every transaction is framed by a single chip-select Low/High pair and carried
// in a single bus exchange. The device auto-increments its register pointer while
// chip-select stays low, which is what makes ReadAll temporally consistent.
//
// The driver does not detect protocol misuse: sampling before BeginMeasurement
// returns whatever the data registers hold (zeros after reset).
//
// Typical usage:
//
//	dev, err := NewADXL362(bus, cs)
//	err = dev.BeginMeasurement(ctx)
//	sample, err := dev.ReadAll(ctx)
type ADXL362 struct {
	mx     sync.Mutex
	bus    motion.SPIBus
	cs     motion.ChipSelect
	config ADXL362Opts
}

// NewADXL362 binds bus and chip-select and performs a soft reset.
func NewADXL362(bus motion.SPIBus, cs motion.ChipSelect, opts ...ADXL362Opt) (*ADXL362, error) {
	return NewADXL362Context(context.Background(), bus, cs, opts...)
}

// NewADXL362Context is NewADXL362 with a context used for the reset transaction.
func NewADXL362Context(ctx context.Context, bus motion.SPIBus, cs motion.ChipSelect, opts ...ADXL362Opt) (*ADXL362, error) {
	config := ADXL362Opts{
		ResetDelay:       10 * time.Millisecond,
		MeasurementDelay: 10 * time.Millisecond,
		Sleep:            time.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Sleep == nil {
		config.Sleep = time.Sleep
	}
	d := &ADXL362{bus: bus, cs: cs, config: config}
	if config.SkipReset {
		return d, nil
	}
	if err := d.SoftReset(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases the bus handle if the transport holds one.
func (d *ADXL362) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if c, ok := d.bus.(motion.BusCloser); ok {
		return c.Close()
	}
	return nil
}

// transaction asserts chip-select, exchanges tx in one go and deasserts
// chip-select on every exit path.
func (d *ADXL362) transaction(ctx context.Context, tx []byte) (rx []byte, err error) {
	defer func() {
		relErr := d.cs.SetLevel(ctx, motion.High)
		if relErr != nil && err == nil {
			err = fmt.Errorf("adxl362: could not release chip select: %w", relErr)
		}
	}()
	if err = d.cs.SetLevel(ctx, motion.Low); err != nil {
		return nil, fmt.Errorf("adxl362: could not assert chip select: %w", err)
	}
	rx, err = d.bus.Exchange(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("adxl362: exchange failed: %w", err)
	}
	if len(rx) < len(tx) {
		return nil, fmt.Errorf("adxl362: sent %d bytes, got %d: %w", len(tx), len(rx), motion.ErrShortExchange)
	}
	snsctx.Trace(ctx, "adxl362 transaction", "tx", hex.EncodeToString(tx), "rx", hex.EncodeToString(rx))
	return rx, nil
}

func (d *ADXL362) writeRegister(ctx context.Context, address, value byte) error {
	_, err := d.transaction(ctx, []byte{cmdWrite, address, value})
	return err
}

func (d *ADXL362) readRegister(ctx context.Context, address byte) (byte, error) {
	rx, err := d.transaction(ctx, []byte{cmdRead, address, 0x00})
	if err != nil {
		return 0, err
	}
	return rx[2], nil
}

func (d *ADXL362) readRegisterPair(ctx context.Context, address byte) (uint16, error) {
	rx, err := d.transaction(ctx, []byte{cmdRead, address, 0x00, 0x00})
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(rx[2:4]), nil
}

func (d *ADXL362) burstRead(ctx context.Context, address byte, count uint16) ([]byte, error) {
	tx := make([]byte, 2+int(count))
	tx[0] = cmdRead
	tx[1] = address
	rx, err := d.transaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return rx[2 : 2+int(count)], nil
}

// WriteRegister writes a single register.
func (d *ADXL362) WriteRegister(ctx context.Context, address, value byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writeRegister(ctx, address, value)
}

// ReadRegister reads a single register.
func (d *ADXL362) ReadRegister(ctx context.Context, address byte) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.readRegister(ctx, address)
}

// WriteRegisterPair writes value to address (low byte) and address+1 (high byte)
// in one transaction.
func (d *ADXL362) WriteRegisterPair(ctx context.Context, address byte, value uint16) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	tx := []byte{cmdWrite, address, 0x00, 0x00}
	binary.LittleEndian.PutUint16(tx[2:], value)
	_, err := d.transaction(ctx, tx)
	return err
}

// ReadRegisterPair reads the little-endian pair at address and address+1 in one
// transaction.
func (d *ADXL362) ReadRegisterPair(ctx context.Context, address byte) (uint16, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.readRegisterPair(ctx, address)
}

// BurstRead reads count consecutive registers starting at address while keeping
// chip-select asserted.
func (d *ADXL362) BurstRead(ctx context.Context, address byte, count uint16) ([]byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.burstRead(ctx, address, count)
}

// SoftReset resets the device and waits for it to settle.
func (d *ADXL362) SoftReset(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.writeRegister(ctx, RegSoftReset, softResetCode)
	if err != nil {
		return fmt.Errorf("adxl362: could not issue soft reset: %w", err)
	}
	// device ignores commands until reset completes
	d.config.Sleep(d.config.ResetDelay)
	return nil
}

// BeginMeasurement enables measurement mode. Required after every reset.
func (d *ADXL362) BeginMeasurement(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	pc, err := d.readRegister(ctx, RegPowerCtl)
	if err != nil {
		return fmt.Errorf("adxl362: could not read power control: %w", err)
	}
	err = d.writeRegister(ctx, RegPowerCtl, pc|powerCtlMeasure)
	if err != nil {
		return fmt.Errorf("adxl362: could not enable measurement: %w", err)
	}
	d.config.Sleep(d.config.MeasurementDelay)
	return nil
}

// EndMeasurement puts the device back into standby.
func (d *ADXL362) EndMeasurement(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	pc, err := d.readRegister(ctx, RegPowerCtl)
	if err != nil {
		return fmt.Errorf("adxl362: could not read power control: %w", err)
	}
	err = d.writeRegister(ctx, RegPowerCtl, pc&^powerCtlMeasureMask)
	if err != nil {
		return fmt.Errorf("adxl362: could not enter standby: %w", err)
	}
	return nil
}

// ReadAxis returns the raw 16-bit value of a single axis. Use ReadAll when axes
// must come from the same sample.
func (d *ADXL362) ReadAxis(ctx context.Context, axis Axis) (uint16, error) {
	reg, err := axis.register()
	if err != nil {
		return 0, err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	v, err := d.readRegisterPair(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("adxl362: could not read %s axis: %w", axis, err)
	}
	return v, nil
}

func (d *ADXL362) ReadX(ctx context.Context) (uint16, error) { return d.ReadAxis(ctx, AxisX) }

func (d *ADXL362) ReadY(ctx context.Context) (uint16, error) { return d.ReadAxis(ctx, AxisY) }

func (d *ADXL362) ReadZ(ctx context.Context) (uint16, error) { return d.ReadAxis(ctx, AxisZ) }

// ReadTemperature returns the raw temperature register pair.
func (d *ADXL362) ReadTemperature(ctx context.Context) (uint16, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	v, err := d.readRegisterPair(ctx, RegTempL)
	if err != nil {
		return 0, fmt.Errorf("adxl362: could not read temperature: %w", err)
	}
	return v, nil
}

// ReadAll reads X, Y, Z and temperature in a single burst.
func (d *ADXL362) ReadAll(ctx context.Context) (Sample, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	buf, err := d.burstRead(ctx, RegXDataL, sampleLen)
	if err != nil {
		return Sample{}, fmt.Errorf("adxl362: could not read sample: %w", err)
	}
	return decodeSample(buf), nil
}

func decodeSample(buf []byte) Sample {
	return Sample{
		X:           binary.LittleEndian.Uint16(buf[0:2]),
		Y:           binary.LittleEndian.Uint16(buf[2:4]),
		Z:           binary.LittleEndian.Uint16(buf[4:6]),
		Temperature: binary.LittleEndian.Uint16(buf[6:8]),
	}
}

// ReadDeviceID reads the four identification registers.
func (d *ADXL362) ReadDeviceID(ctx context.Context) (DeviceID, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	buf, err := d.burstRead(ctx, RegDevIDAD, 4)
	if err != nil {
		return DeviceID{}, fmt.Errorf("adxl362: could not read device id: %w", err)
	}
	return DeviceID{AnalogDevices: buf[0], MEMS: buf[1], Part: buf[2], Revision: buf[3]}, nil
}

// VerifyDeviceID returns ErrWrongDevice unless an ADXL362 answers.
func (d *ADXL362) VerifyDeviceID(ctx context.Context) (DeviceID, error) {
	id, err := d.ReadDeviceID(ctx)
	if err != nil {
		return id, err
	}
	if id.AnalogDevices != expectedDevIDAD || id.MEMS != expectedDevIDMST || id.Part != expectedPartID {
		return id, fmt.Errorf("%w: devid_ad=%#x devid_mst=%#x partid=%#x", ErrWrongDevice, id.AnalogDevices, id.MEMS, id.Part)
	}
	return id, nil
}
