package motion

import (
	"context"
	"fmt"
	"time"
)

var ErrShortExchange = fmt.Errorf("SPI exchange returned fewer bytes than sent")

// Level is the electrical level of a chip-select line. Chip-select is active low.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "High"
	}
	return "Low"
}

// SPIBus is a full-duplex byte exchange primitive. The returned slice has the
// same length as out.
type SPIBus interface {
	Exchange(ctx context.Context, out []byte) ([]byte, error)
}

// ChipSelect drives the chip-select line of a single device.
type ChipSelect interface {
	SetLevel(ctx context.Context, level Level) error
}

// Sleeper blocks the caller for the given duration.
type Sleeper func(time.Duration)

// BusCloser is implemented by transports that hold an OS handle.
type BusCloser interface {
	SPIBus
	Close() error
}
