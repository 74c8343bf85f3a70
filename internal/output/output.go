// Package output holds frame sinks other than the direct SPI strip.
package output

import (
	"fmt"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
)

// Sink is anything the animation driver can play into.
type Sink interface {
	WriteRaw(grb []byte) error
	Clear() error
	Close() error
}

var (
	_ Sink = (*led.Strip)(nil)
	_ Sink = (*NRZ)(nil)
	_ Sink = (*Console)(nil)
)

func checkLen(grb []byte, numLEDs int) error {
	if want := numLEDs * led.ChannelsPerLED; len(grb) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", led.ErrInvalidFrameLength, len(grb), want)
	}
	return nil
}

// grbToRGB reorders packed GRB pixels into dst as RGB.
func grbToRGB(dst, grb []byte) {
	for i := 0; i+2 < len(grb); i += 3 {
		dst[i+0], dst[i+1], dst[i+2] = grb[i+1], grb[i+0], grb[i+2]
	}
}
