package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/host/v3"

	"github.com/coreman2200/arcaluminis-ws2812/internal/animation"
	"github.com/coreman2200/arcaluminis-ws2812/internal/config"
	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
	"github.com/coreman2200/arcaluminis-ws2812/internal/monitor"
	"github.com/coreman2200/arcaluminis-ws2812/internal/output"
	"github.com/coreman2200/arcaluminis-ws2812/internal/pattern"
	"github.com/coreman2200/arcaluminis-ws2812/internal/schedule"
)

func main() {
	// ---- Flags (override config.yaml when set) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		device     = flag.String("device", "", "spidev node, e.g. /dev/spidev1.0")
		numLEDs    = flag.Int("num-leds", 0, "LEDs in the string")
		fps        = flag.Int("fps", 0, "animation frames per second")
		out        = flag.String("output", "", "output: spi | nrzled | console")
		logLevel   = flag.String("log-level", "", "zerolog level")
		name       = flag.String("pattern", "", "pattern: solid | breathe | chase | channels")
		colorFlag  = flag.String("color", "", "pattern color as R,G,B")
		hz         = flag.Float64("hz", 0, "pattern cycles per second")
		clockwise  = flag.Bool("clockwise", false, "chase toward the bus end")
		demo       = flag.Bool("demo", false, "run the cosine brightness demo instead of a pattern")
		mon        = flag.Bool("monitor", false, "serve the websocket frame monitor")
		addr       = flag.String("addr", "", "monitor listen address")
		saveTo     = flag.String("save-config", "", "write the merged configuration to this path and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional), env, then flags ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		cfg = config.Default()
	}
	if err := config.ApplyEnv(cfg); err != nil {
		log.Fatal().Err(err).Msg("bad environment")
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "num-leds":
			cfg.NumLEDs = *numLEDs
		case "fps":
			cfg.FPS = *fps
		case "output":
			cfg.Output = *out
		case "log-level":
			cfg.LogLevel = *logLevel
		case "pattern":
			cfg.Pattern.Name = *name
		case "hz":
			cfg.Pattern.Hz = *hz
		case "clockwise":
			cfg.Pattern.Clockwise = *clockwise
		case "monitor":
			cfg.Monitor.Enabled = *mon
		case "addr":
			cfg.Monitor.Addr = *addr
		}
	})
	if *colorFlag != "" {
		c, err := parseColor(*colorFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -color")
		}
		cfg.Pattern.Color = c
	}
	if cfg.Pattern.Name != "" && len(cfg.Pattern.Color) == 0 {
		cfg.Pattern.Color = []int{255, 0, 0}
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *saveTo != "" {
		if err := config.Save(*saveTo, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *saveTo).Msg("save config")
		}
		log.Info().Str("path", *saveTo).Msg("configuration saved")
		return
	}

	if err := run(cfg, *demo); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func run(cfg *config.Config, demo bool) error {
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	var (
		drv *animation.Driver
		hub *monitor.Hub
	)
	failed := make(chan error, 1)
	hooks := animation.Hooks{OnFail: func(err error) {
		if hub != nil {
			hub.Report(monitor.Diagnostic{Severity: monitor.Err, Code: "ANIM.FAIL", Summary: "animation stopped", Detail: err.Error()})
		}
		failed <- err
	}}
	if cfg.Monitor.Enabled {
		hub = monitor.NewHub(cfg.NumLEDs, cfg.FPS, cfg.Monitor.MaxFPS, func() string { return string(drv.State()) })
		hooks.OnFrame = hub.Publish
	}
	if drv, err = animation.New(sink, cfg.FPS, hooks); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	return serve(ctx, g, cfg, sink, drv, hub, failed, demo)
}

func serve(ctx context.Context, g *errgroup.Group, cfg *config.Config, sink output.Sink,
	drv *animation.Driver, hub *monitor.Hub, failed <-chan error, demo bool) error {
	if s, ok := sink.(*led.Strip); ok {
		s.SetAnimator(drv)
	}

	play := func(p pattern.Spec) error {
		t, err := pattern.Build(p, cfg.NumLEDs, drv.FPS())
		if err != nil {
			return err
		}
		return drv.Play(t)
	}

	sched := schedule.New(play)
	for _, s := range cfg.Schedules {
		p, err := s.Pattern.Spec()
		if err != nil {
			return err
		}
		if _, err := sched.Add(s.Spec, p); err != nil {
			return err
		}
	}

	switch {
	case demo:
		base := led.RGB(255, 0, 0)
		if p, err := cfg.Pattern.Spec(); err == nil {
			base = p.Color
		}
		g.Go(func() error { return runDemo(ctx, colorWriter(sink, cfg.NumLEDs), cfg.NumLEDs, base) })
	case cfg.Pattern.Name != "":
		p, err := cfg.Pattern.Spec()
		if err != nil {
			return err
		}
		if err := play(p); err != nil {
			return err
		}
		log.Info().Str("pattern", p.Name).Float64("hz", p.Hz).Int("fps", drv.FPS()).Msg("playing")
	case sched.Len() == 0 && hub == nil:
		log.Warn().Msg("no pattern, demo or schedule configured; waiting for a signal")
	}
	if sched.Len() > 0 {
		sched.Start()
	}

	if hub != nil {
		srv := &http.Server{
			Addr:         cfg.Monitor.Addr,
			Handler:      hub.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error { hub.Run(ctx); return nil })
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("monitor starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		select {
		case err := <-failed:
			return fmt.Errorf("animation: %w", err)
		case <-ctx.Done():
			return nil
		}
	})

	err := g.Wait()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sched.Stop(sctx)
	if serr := drv.Stop(); serr != nil && err == nil {
		err = serr
	}
	if cerr := sink.Clear(); cerr != nil {
		log.Warn().Err(cerr).Msg("clear failed")
	}
	return err
}

func openSink(cfg *config.Config) (output.Sink, error) {
	if cfg.Output == config.OutputConsole {
		return output.NewConsole(cfg.NumLEDs), nil
	}
	if err := config.CheckDevice(cfg.Device); err != nil {
		return nil, err
	}
	bus, cs, err := config.ParseDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", led.ErrDeviceUnavailable, err)
	}
	if cfg.Output == config.OutputNRZ {
		return output.OpenNRZ(bus, cs, cfg.NumLEDs)
	}
	return led.OpenStrip(bus, cs, cfg.NumLEDs)
}

func parseColor(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: color %q is not R,G,B", led.ErrInvalidConfiguration, s)
	}
	out := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: color %q: %v", led.ErrInvalidConfiguration, s, err)
		}
		out[i] = v
	}
	return out, nil
}
