// Package schedule switches patterns on cron specs.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ws2812/internal/led"
	"github.com/coreman2200/arcaluminis-ws2812/internal/pattern"
)

// Apply installs a pattern, usually by building its frame table and
// calling animation.Driver.Play.
type Apply func(pattern.Spec) error

// Scheduler manages all cron entries.
type Scheduler struct {
	cron  *cron.Cron
	apply Apply
}

func New(apply Apply) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		apply: apply,
	}
}

// job applies one pattern when its entry fires.
type job struct {
	s *Scheduler
	p pattern.Spec
}

func (j job) Run() { j.s.execute(j.p) }

// Add registers p to be applied whenever spec fires.
func (s *Scheduler) Add(spec string, p pattern.Spec) (cron.EntryID, error) {
	id, err := s.cron.AddJob(spec, job{s: s, p: p})
	if err != nil {
		return 0, fmt.Errorf("%w: cron spec %q: %v", led.ErrInvalidConfiguration, spec, err)
	}
	log.Info().Str("spec", spec).Str("pattern", p.Name).Int("id", int(id)).Msg("schedule: added")
	return id, nil
}

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("entries", s.Len()).Msg("schedule: started")
}

// Stop halts the ticker and waits for running jobs.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	log.Info().Msg("schedule: stopped")
}

func (s *Scheduler) execute(p pattern.Spec) {
	if err := s.apply(p); err != nil {
		log.Error().Err(err).Str("pattern", p.Name).Msg("schedule: apply failed")
		return
	}
	log.Info().Str("pattern", p.Name).Msg("schedule: applied")
}
