package accel

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/mklimuk/motion"
)

// SampleBehaviorFunc produces the sample latched into the data registers at the
// start of every transaction while the device is measuring.
type SampleBehaviorFunc func() Sample

type SimEventKind int

const (
	SimChipSelectLow SimEventKind = iota
	SimChipSelectHigh
	SimExchange
)

func (k SimEventKind) String() string {
	switch k {
	case SimChipSelectLow:
		return "cs-low"
	case SimChipSelectHigh:
		return "cs-high"
	default:
		return "exchange"
	}
}

// SimEvent is one recorded bus or chip-select operation.
type SimEvent struct {
	Kind SimEventKind
	Tx   []byte
}

type simPhase int

const (
	phaseOpcode simPhase = iota
	phaseAddress
	phaseData
	phaseIgnore
)

var _ motion.SPIBus = &SimulatedADXL362{}
var _ motion.ChipSelect = &SimulatedADXL362{}

// SimulatedADXL362 emulates the ADXL362 SPI register interface in memory. It is both
// the bus and the chip-select line, so it sees the transaction framing exactly like
// the real device does: the opcode and address are latched after chip-select goes low
// and the register pointer auto-increments on every following byte until chip-select
// goes high.
//
// Example usage:
//
//	sim := NewSimulatedADXL362(nil)
//	sim.SetRegisters(RegXDataL, 0x34, 0x12)
//	dev, _ := NewADXL362(sim, sim, WithSleeper(func(time.Duration) {}))
//	x, _ := dev.ReadAxis(ctx, AxisX) // 0x1234
type SimulatedADXL362 struct {
	mx       sync.Mutex
	regs     [256]byte
	behavior SampleBehaviorFunc
	events   []SimEvent

	selected bool
	phase    simPhase
	opcode   byte
	pointer  byte
}

// NewSimulatedADXL362 creates a simulated device in its power-on state. behavior may
// be nil, in which case the data registers only change through writes.
func NewSimulatedADXL362(behavior SampleBehaviorFunc) *SimulatedADXL362 {
	s := &SimulatedADXL362{behavior: behavior}
	s.reset()
	return s
}

func (s *SimulatedADXL362) reset() {
	s.regs = [256]byte{}
	s.regs[RegDevIDAD] = expectedDevIDAD
	s.regs[RegDevIDMST] = expectedDevIDMST
	s.regs[RegPartID] = expectedPartID
	s.regs[RegRevID] = 0x02
}

// SetLevel implements motion.ChipSelect.
func (s *SimulatedADXL362) SetLevel(ctx context.Context, level motion.Level) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if level == motion.Low {
		s.events = append(s.events, SimEvent{Kind: SimChipSelectLow})
		s.selected = true
		s.phase = phaseOpcode
		if s.behavior != nil && s.regs[RegPowerCtl]&powerCtlMeasureMask == powerCtlMeasure {
			s.latch(s.behavior())
		}
		return nil
	}
	s.events = append(s.events, SimEvent{Kind: SimChipSelectHigh})
	s.selected = false
	return nil
}

// Exchange implements motion.SPIBus.
func (s *SimulatedADXL362) Exchange(ctx context.Context, out []byte) ([]byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.events = append(s.events, SimEvent{Kind: SimExchange, Tx: append([]byte(nil), out...)})
	in := make([]byte, len(out))
	if !s.selected {
		// MISO is tri-stated while the device is not selected
		return in, nil
	}
	for i, b := range out {
		in[i] = s.clock(b)
	}
	return in, nil
}

func (s *SimulatedADXL362) clock(b byte) byte {
	switch s.phase {
	case phaseOpcode:
		s.opcode = b
		if b == cmdRead || b == cmdWrite {
			s.phase = phaseAddress
		} else {
			s.phase = phaseIgnore
		}
		return 0
	case phaseAddress:
		s.pointer = b
		s.phase = phaseData
		return 0
	case phaseData:
		addr := s.pointer
		s.pointer++
		if s.opcode == cmdRead {
			return s.regs[addr]
		}
		if addr == RegSoftReset && b == softResetCode {
			s.reset()
			return 0
		}
		s.regs[addr] = b
		return 0
	}
	return 0
}

func (s *SimulatedADXL362) latch(sample Sample) {
	binary.LittleEndian.PutUint16(s.regs[RegXDataL:], sample.X)
	binary.LittleEndian.PutUint16(s.regs[RegYDataL:], sample.Y)
	binary.LittleEndian.PutUint16(s.regs[RegZDataL:], sample.Z)
	binary.LittleEndian.PutUint16(s.regs[RegTempL:], sample.Temperature)
}

// SetRegisters writes values to consecutive registers starting at address.
func (s *SimulatedADXL362) SetRegisters(address byte, values ...byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	for i, v := range values {
		s.regs[address+byte(i)] = v
	}
}

// Register returns the current content of a register.
func (s *SimulatedADXL362) Register(address byte) byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.regs[address]
}

// SetSample writes sample into the data registers.
func (s *SimulatedADXL362) SetSample(sample Sample) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.latch(sample)
}

// Events returns a copy of the recorded operations.
func (s *SimulatedADXL362) Events() []SimEvent {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]SimEvent(nil), s.events...)
}

func (s *SimulatedADXL362) ClearEvents() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.events = nil
}

// Close is a no-op so the simulator can stand in for closable transports.
func (s *SimulatedADXL362) Close() error {
	return nil
}
