package led

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Animator is the background writer a Strip halts before clearing.
type Animator interface {
	Stop() error
}

// Strip is a single WS2812 string behind a Transport. Writes are serialized
// so the shared transmit buffer is never encoded and sent concurrently.
type Strip struct {
	mu   sync.Mutex
	fb   *FrameBuffer
	tx   Transport
	anim Animator
}

// NewStrip wraps an open transport.
func NewStrip(t Transport, numLEDs int) (*Strip, error) {
	fb, err := NewFrameBuffer(numLEDs)
	if err != nil {
		return nil, err
	}
	if l, ok := t.(interface{ MaxTxSize() int }); ok {
		if m := l.MaxTxSize(); m > 0 && TxLen(numLEDs) > m {
			return nil, fmt.Errorf("%w: %d LEDs need %d byte transfers, port max is %d",
				ErrInvalidConfiguration, numLEDs, TxLen(numLEDs), m)
		}
	}
	return &Strip{fb: fb, tx: t}, nil
}

// OpenStrip opens the SPI device for bus and chip select and sizes the
// buffers for numLEDs.
func OpenStrip(bus, cs, numLEDs int) (*Strip, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("%w: num_leds must be > 0, got %d", ErrInvalidConfiguration, numLEDs)
	}
	t, err := OpenSPI(bus, cs)
	if err != nil {
		return nil, err
	}
	s, err := NewStrip(t, numLEDs)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	log.Info().Str("port", t.String()).Int("num_leds", numLEDs).Msg("led: strip opened")
	return s, nil
}

// FrameLen is the raw GRB frame size accepted by WriteRaw.
func (s *Strip) FrameLen() int { return s.fb.FrameLen() }

// SetAnimator registers the animation Clear stops first.
func (s *Strip) SetAnimator(a Animator) {
	s.mu.Lock()
	s.anim = a
	s.mu.Unlock()
}

// Write sets one color per LED, padding or truncating to NumLEDs.
func (s *Strip) Write(colors []Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx.Tx(s.fb.EncodeColors(colors))
}

// WriteRaw sends a packed GRB frame of exactly FrameLen bytes.
func (s *Strip) WriteRaw(grb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, err := s.fb.EncodeRaw(grb)
	if err != nil {
		return err
	}
	return s.tx.Tx(buf)
}

// Clear stops the animation, if any, then turns every LED off. An error
// the animation stopped with is returned alongside any transmit error.
func (s *Strip) Clear() error {
	s.mu.Lock()
	a := s.anim
	s.mu.Unlock()

	var animErr error
	if a != nil {
		animErr = a.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(animErr, s.tx.Tx(s.fb.Blank()))
}

// Close releases the transport. It does not clear the LEDs.
func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx.Close()
}
