package output

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
)

// NRZFreq is the only clock nrzled accepts: 3 SPI bits per WS2812 bit,
// ~833 kHz on the wire.
const NRZFreq = 2500 * physic.KiloHertz

// NRZ plays GRB frames through periph's nrzled encoder, for ports that
// cannot clock at led.ClockFreq.
type NRZ struct {
	port    spi.Port
	dev     *nrzled.Dev
	numLEDs int
	rgb     []byte
}

// OpenNRZ opens /dev/spidev<bus>.<cs> for an nrzled string.
func OpenNRZ(bus, cs, numLEDs int) (*NRZ, error) {
	name := led.DevicePath(bus, cs)
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", led.ErrDeviceUnavailable, name, err)
	}
	n, err := NewNRZ(p, numLEDs)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return n, nil
}

func NewNRZ(p spi.Port, numLEDs int) (*NRZ, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("%w: num_leds must be > 0, got %d", led.ErrInvalidConfiguration, numLEDs)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: numLEDs,
		Channels:  3,
		Freq:      NRZFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: nrzled: %v", led.ErrDeviceUnavailable, err)
	}
	return &NRZ{port: p, dev: d, numLEDs: numLEDs, rgb: make([]byte, numLEDs*3)}, nil
}

func (n *NRZ) String() string { return n.dev.String() }

// FrameLen is the raw GRB frame size accepted by WriteRaw.
func (n *NRZ) FrameLen() int { return n.numLEDs * led.ChannelsPerLED }

// WriteRaw converts the GRB frame back to RGB, which nrzled reorders on
// the wire itself.
func (n *NRZ) WriteRaw(grb []byte) error {
	if err := checkLen(grb, n.numLEDs); err != nil {
		return err
	}
	grbToRGB(n.rgb, grb)
	if _, err := n.dev.Write(n.rgb); err != nil {
		return fmt.Errorf("%w: %v", led.ErrTransmit, err)
	}
	return nil
}

func (n *NRZ) Clear() error {
	if err := n.dev.Halt(); err != nil {
		return fmt.Errorf("%w: %v", led.ErrTransmit, err)
	}
	return nil
}

func (n *NRZ) Close() error {
	if c, ok := n.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
