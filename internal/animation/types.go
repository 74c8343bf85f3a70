package animation

import (
	"errors"
	"fmt"
)

// ErrInvalidAnimationConfig reports a non-positive fps, an empty frame
// table or rows of differing length.
var ErrInvalidAnimationConfig = errors.New("invalid animation config")

// DefaultFPS is the cadence used when none is configured.
const DefaultFPS = 30

// FrameTable is an ordered set of packed GRB frames, played by index with
// wraparound.
type FrameTable [][]byte

// Validate checks the table is non-empty and rectangular.
func (t FrameTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: frame table is empty", ErrInvalidAnimationConfig)
	}
	w := len(t[0])
	if w == 0 {
		return fmt.Errorf("%w: frame 0 is empty", ErrInvalidAnimationConfig)
	}
	for i, row := range t {
		if len(row) != w {
			return fmt.Errorf("%w: frame %d is %d bytes, frame 0 is %d", ErrInvalidAnimationConfig, i, len(row), w)
		}
	}
	return nil
}

// State enumerates driver states.
type State string

const (
	Stopped State = "stopped"
	Running State = "running"
)

// RawWriter sends one packed GRB frame. led.Strip satisfies it.
type RawWriter interface {
	WriteRaw(grb []byte) error
}

// framer is implemented by writers that only accept one frame size.
type framer interface {
	FrameLen() int
}

// Hooks are optional callbacks run from the cadence loop.
type Hooks struct {
	// OnFrame runs under the frame lock after each successful write. frame
	// must not be retained.
	OnFrame func(index int, frame []byte)
	// OnFail runs once when a write error ends the loop. It must not call
	// Start or Stop.
	OnFail func(err error)
}
