package led

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// WS2812 timing expressed as SPI bytes at ClockHz. Each symbol is one
// WS2812 bit: 2 high clocks (~0.31µs) for "0", 6 high clocks (~0.92µs) for "1".
const (
	SymbolZero byte = 0b1100_0000
	SymbolOne  byte = 0b1111_1100

	// ResetGapBytes of zeros (~51.7µs) precede every frame. MOSI idles
	// high, so without the gap the first LED reads a leading "1".
	ResetGapBytes = 42

	ChannelsPerLED = 3
	SymbolsPerLED  = ChannelsPerLED * 8
)

// lut expands a channel byte into its 8 SPI symbols, MSB first.
var lut = buildLUT()

func buildLUT() [256][8]byte {
	var t [256][8]byte
	for v := 0; v < 256; v++ {
		for i := 0; i < 8; i++ {
			t[v][i] = EncodeBit((v>>(7-i))&1 == 1)
		}
	}
	return t
}

// EncodeBit returns the SPI symbol for one WS2812 bit.
func EncodeBit(bit bool) byte {
	if bit {
		return SymbolOne
	}
	return SymbolZero
}

// EncodeByte returns the 8 SPI symbols for one channel intensity.
func EncodeByte(v byte) [8]byte {
	return lut[v]
}

// TxLen is the transmit buffer size for n LEDs.
func TxLen(n int) int {
	return ResetGapBytes + n*SymbolsPerLED
}

// FrameBuffer owns the transmit buffer for one string: a zero reset gap
// followed by 24 symbols per LED. Slices it returns are only valid until the
// next call that encodes.
type FrameBuffer struct {
	numLEDs int
	flat    []byte
	tx      []byte
	blank   []byte
}

// NewFrameBuffer allocates buffers for numLEDs LEDs.
func NewFrameBuffer(numLEDs int) (*FrameBuffer, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("%w: num_leds must be > 0, got %d", ErrInvalidConfiguration, numLEDs)
	}
	f := &FrameBuffer{
		numLEDs: numLEDs,
		flat:    make([]byte, numLEDs*ChannelsPerLED),
		tx:      make([]byte, TxLen(numLEDs)),
		blank:   make([]byte, TxLen(numLEDs)),
	}
	for i := ResetGapBytes; i < len(f.blank); i++ {
		f.blank[i] = SymbolZero
	}
	return f, nil
}

// FrameLen is the raw GRB frame size accepted by EncodeRaw.
func (f *FrameBuffer) FrameLen() int { return f.numLEDs * ChannelsPerLED }

// EncodeColors encodes one color per LED. Short input is padded with Off,
// long input is truncated to NumLEDs.
func (f *FrameBuffer) EncodeColors(colors []Color) []byte {
	switch d := f.numLEDs - len(colors); {
	case d > 0:
		log.Debug().Int("pad", d).Msg("led: colors too short, padding with off")
	case d < 0:
		log.Debug().Int("trim", -d).Msg("led: colors too long, truncating")
		colors = colors[:f.numLEDs]
	}
	for i := 0; i < f.numLEDs; i++ {
		c := Off
		if i < len(colors) {
			c = colors[i]
		}
		f.flat[i*3+0] = c.G
		f.flat[i*3+1] = c.R
		f.flat[i*3+2] = c.B
	}
	return f.encode(f.flat)
}

// EncodeRaw encodes a packed GRB frame. The frame must be exactly
// FrameLen bytes.
func (f *FrameBuffer) EncodeRaw(grb []byte) ([]byte, error) {
	if len(grb) != f.FrameLen() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidFrameLength, len(grb), f.FrameLen())
	}
	return f.encode(grb), nil
}

// Blank returns a buffer that turns every LED off.
func (f *FrameBuffer) Blank() []byte {
	return f.blank
}

func (f *FrameBuffer) encode(flat []byte) []byte {
	payload := f.tx[ResetGapBytes:]
	for i, v := range flat {
		copy(payload[i*8:i*8+8], lut[v][:])
	}
	return f.tx
}
