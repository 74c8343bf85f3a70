package main

import (
	"context"
	"math"
	"time"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
	"github.com/coreman2200/arcaluminis-ws2812/internal/output"
)

const (
	demoSteps  = 50
	demoPeriod = 20 * time.Millisecond
)

type colorSink interface {
	Write(colors []led.Color) error
}

// rawColors flattens colors for sinks that only take packed GRB frames.
type rawColors struct {
	sink output.Sink
	n    int
}

func (r rawColors) Write(colors []led.Color) error {
	grb := make([]byte, r.n*led.ChannelsPerLED)
	for i := 0; i < r.n && i < len(colors); i++ {
		grb[i*3+0], grb[i*3+1], grb[i*3+2] = colors[i].G, colors[i].R, colors[i].B
	}
	return r.sink.WriteRaw(grb)
}

func colorWriter(s output.Sink, n int) colorSink {
	if cs, ok := s.(colorSink); ok {
		return cs
	}
	return rawColors{sink: s, n: n}
}

// demoLevels is one cosine brightness cycle starting and ending dark.
func demoLevels(steps int) []float64 {
	out := make([]float64, steps)
	for i := range out {
		theta := math.Pi + 2*math.Pi*float64(i)/float64(steps-1)
		out[i] = (math.Cos(theta) + 1) * 0.5
	}
	return out
}

// runDemo pulses base on every LED until ctx is done.
func runDemo(ctx context.Context, w colorSink, n int, base led.Color) error {
	levels := demoLevels(demoSteps)
	colors := make([]led.Color, n)
	ticker := time.NewTicker(demoPeriod)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(levels) {
		c := base.Scale(levels[i])
		for j := range colors {
			colors[j] = c
		}
		if err := w.Write(colors); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
