package output

import (
	"image"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
)

// Console previews frames in the terminal when no SPI port is present.
type Console struct {
	dev     display.Drawer
	img     *image.NRGBA
	numLEDs int
}

func NewConsole(numLEDs int) *Console {
	return newConsole(screen.New(numLEDs), numLEDs)
}

func newConsole(d display.Drawer, numLEDs int) *Console {
	return &Console{
		dev:     d,
		img:     image.NewNRGBA(image.Rect(0, 0, numLEDs, 1)),
		numLEDs: numLEDs,
	}
}

func (c *Console) WriteRaw(grb []byte) error {
	if err := checkLen(grb, c.numLEDs); err != nil {
		return err
	}
	for i := 0; i < c.numLEDs; i++ {
		px := led.Color{G: grb[i*3+0], R: grb[i*3+1], B: grb[i*3+2]}
		c.img.SetNRGBA(i, 0, px.NRGBA())
	}
	return c.dev.Draw(c.dev.Bounds(), c.img, image.Point{})
}

// FrameLen is the raw GRB frame size accepted by WriteRaw.
func (c *Console) FrameLen() int { return c.numLEDs * led.ChannelsPerLED }

func (c *Console) Clear() error { return c.dev.Halt() }

func (c *Console) Close() error { return nil }
