package animation

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Driver plays a FrameTable into a RawWriter at a fixed rate from one
// background goroutine.
//
// Stop always wins over a running loop but leaves nothing behind: once it
// returns, Start may launch a fresh loop from frame 0.
type Driver struct {
	w      RawWriter
	fps    int
	period time.Duration
	hooks  Hooks

	// mu guards frames. The loop holds it for one frame write.
	mu     sync.Mutex
	frames FrameTable

	// ctl serializes Start and Stop.
	ctl  sync.Mutex
	quit chan struct{}
	done chan struct{}
	err  error
}

// New builds a stopped driver writing to w at fps frames per second.
func New(w RawWriter, fps int, hooks Hooks) (*Driver, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps must be > 0, got %d", ErrInvalidAnimationConfig, fps)
	}
	return &Driver{
		w:      w,
		fps:    fps,
		period: time.Second / time.Duration(fps),
		hooks:  hooks,
	}, nil
}

func (d *Driver) FPS() int { return d.fps }

// State reports Running while a loop goroutine is alive.
func (d *Driver) State() State {
	d.ctl.Lock()
	defer d.ctl.Unlock()
	if d.done == nil {
		return Stopped
	}
	select {
	case <-d.done:
		return Stopped
	default:
		return Running
	}
}

// SetFrames replaces the frame table. A running loop sees the new table on
// its next tick; its cursor wraps if the table shrank. If the writer reports
// a FrameLen, every row must be that long.
func (d *Driver) SetFrames(t FrameTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if f, ok := d.w.(framer); ok && len(t[0]) != f.FrameLen() {
		return fmt.Errorf("%w: frames are %d bytes, writer takes %d",
			ErrInvalidAnimationConfig, len(t[0]), f.FrameLen())
	}
	d.mu.Lock()
	d.frames = t
	d.mu.Unlock()
	return nil
}

// Play installs t and starts the loop if it is not already running.
func (d *Driver) Play(t FrameTable) error {
	if err := d.SetFrames(t); err != nil {
		return err
	}
	return d.Start()
}

// Start launches the cadence loop. It is a no-op while running. If the
// previous loop ended on a write error, that error is returned and the
// loop is not restarted until Stop collects it.
func (d *Driver) Start() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.done != nil {
		select {
		case <-d.done:
			return fmt.Errorf("animation: previous run failed: %w", d.err)
		default:
			log.Debug().Msg("animation: already running")
			return nil
		}
	}

	d.mu.Lock()
	n := len(d.frames)
	d.mu.Unlock()
	if n == 0 {
		return fmt.Errorf("%w: no frame table loaded", ErrInvalidAnimationConfig)
	}

	d.quit = make(chan struct{})
	d.done = make(chan struct{})
	d.err = nil
	log.Info().Int("fps", d.fps).Int("frames", n).Msg("animation: starting")
	go d.run(d.quit, d.done)
	return nil
}

// Stop signals the loop, waits for it to exit and returns the write error
// that ended it, if any. Stopping a stopped driver does nothing.
func (d *Driver) Stop() error {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	if d.done == nil {
		return nil
	}
	close(d.quit)
	<-d.done
	err := d.err
	d.quit, d.done, d.err = nil, nil, nil
	log.Info().Msg("animation: stopped")
	return err
}

func (d *Driver) run(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	index := 0
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			next, err := d.step(index)
			if err != nil {
				d.err = err
				log.Error().Err(err).Int("index", index).Msg("animation: write failed, stopping")
				if d.hooks.OnFail != nil {
					d.hooks.OnFail(err)
				}
				return
			}
			// only this goroutine touches index
			index = next
		}
	}
}

// step writes the frame at index, wrapping to 0 past the end of the table,
// and returns the following index.
func (d *Driver) step(index int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index >= len(d.frames) {
		index = 0
	}
	frame := d.frames[index]
	if err := d.w.WriteRaw(frame); err != nil {
		return index, err
	}
	if d.hooks.OnFrame != nil {
		d.hooks.OnFrame(index, frame)
	}
	return index + 1, nil
}
