// Package pattern builds frame tables for the animation driver.
package pattern

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ws2812/internal/animation"
	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
)

// MinBreatheFrames keeps a breathe cycle from degenerating into a blink.
const MinBreatheFrames = 6

const (
	Solid    = "solid"
	Breathe  = "breathe"
	Chase    = "chase"
	Channels = "channels"
)

// Spec names a pattern and its parameters.
type Spec struct {
	Name      string
	Color     led.Color
	Hz        float64
	Clockwise bool
}

// Build renders s for a string of numLEDs played at fps.
func Build(s Spec, numLEDs, fps int) (animation.FrameTable, error) {
	switch s.Name {
	case Solid:
		return NewSolid(s.Color, numLEDs)
	case Breathe:
		return NewBreathe(s.Color, numLEDs, fps, s.Hz)
	case Chase:
		return NewChase(s.Color, numLEDs, fps, s.Hz, s.Clockwise)
	case Channels:
		return NewChannels(numLEDs, fps, s.Hz)
	default:
		return nil, fmt.Errorf("%w: unknown pattern %q", animation.ErrInvalidAnimationConfig, s.Name)
	}
}

// NewSolid is a one frame table holding c on every LED.
func NewSolid(c led.Color, numLEDs int) (animation.FrameTable, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("%w: num_leds must be > 0, got %d", animation.ErrInvalidAnimationConfig, numLEDs)
	}
	return animation.FrameTable{fill(c, numLEDs)}, nil
}

// NewBreathe fades every LED from off up to c and back over one cycle of
// hz. Intensity follows (cos(θ)+1)/2 for θ evenly spaced over [π, 3π].
func NewBreathe(c led.Color, numLEDs, fps int, hz float64) (animation.FrameTable, error) {
	frames, err := frameCount(numLEDs, fps, hz)
	if err != nil {
		return nil, err
	}
	if frames < MinBreatheFrames {
		log.Warn().Int("frames", frames).Float64("hz", hz).Msg("pattern: breathe cycle too fast, clipping")
		frames = MinBreatheFrames
	}
	t := make(animation.FrameTable, frames)
	for i := range t {
		theta := math.Pi + 2*math.Pi*float64(i)/float64(frames-1)
		t[i] = fill(c.Scale((math.Cos(theta)+1)*0.5), numLEDs)
	}
	return t, nil
}

// NewChase moves a single lit LED around the string once per cycle of hz.
// The frame count is rounded up to a whole number of frames per LED.
// Clockwise runs from the far end of the string toward the bus.
func NewChase(c led.Color, numLEDs, fps int, hz float64, clockwise bool) (animation.FrameTable, error) {
	frames, err := frameCount(numLEDs, fps, hz)
	if err != nil {
		return nil, err
	}
	if rem := frames % numLEDs; rem != 0 || frames == 0 {
		frames += numLEDs - rem
	}
	perLED := frames / numLEDs
	log.Debug().Int("frames", frames).Int("frames_per_led", perLED).Msg("pattern: chase")

	t := make(animation.FrameTable, frames)
	for f := range t {
		row := make([]byte, numLEDs*led.ChannelsPerLED)
		i := f / perLED
		row[i*3+0], row[i*3+1], row[i*3+2] = c.G, c.R, c.B
		if clockwise {
			t[frames-1-f] = row
		} else {
			t[f] = row
		}
	}
	return t, nil
}

// NewChannels shows full red, then green, then blue on every LED, one
// cycle per 1/hz seconds. A string wired with the wrong channel order shows
// the colors out of sequence.
func NewChannels(numLEDs, fps int, hz float64) (animation.FrameTable, error) {
	frames, err := frameCount(numLEDs, fps, hz)
	if err != nil {
		return nil, err
	}
	hold := frames / 3
	if hold < 1 {
		hold = 1
	}
	phases := []led.Color{led.RGB(255, 0, 0), led.RGB(0, 255, 0), led.RGB(0, 0, 255)}
	t := make(animation.FrameTable, 0, hold*len(phases))
	for _, c := range phases {
		row := fill(c, numLEDs)
		for i := 0; i < hold; i++ {
			t = append(t, row)
		}
	}
	return t, nil
}

func frameCount(numLEDs, fps int, hz float64) (int, error) {
	if numLEDs <= 0 {
		return 0, fmt.Errorf("%w: num_leds must be > 0, got %d", animation.ErrInvalidAnimationConfig, numLEDs)
	}
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps must be > 0, got %d", animation.ErrInvalidAnimationConfig, fps)
	}
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, fmt.Errorf("%w: hz must be > 0, got %v", animation.ErrInvalidAnimationConfig, hz)
	}
	return int(float64(fps) / hz), nil
}

func fill(c led.Color, numLEDs int) []byte {
	row := make([]byte, numLEDs*led.ChannelsPerLED)
	for i := 0; i < numLEDs; i++ {
		row[i*3+0], row[i*3+1], row[i*3+2] = c.G, c.R, c.B
	}
	return row
}
