// Package rotation schedules the daily puzzle rollover. At midnight UTC
// it generates and persists the new day's puzzle and resets the shared
// session, so the first player of the day never pays the generation
// cost.
package rotation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/system"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

// defaultSpec fires at midnight UTC.
const defaultSpec = "0 0 * * *"

// Preparer generates and persists the puzzle and session for the day
// containing now. The game service satisfies this.
type Preparer interface {
	Daily(ctx context.Context, now time.Time) (domain.Puzzle, domain.Session, error)
}

// Rotator runs the rollover on a cron schedule and once at startup.
type Rotator struct {
	preparer Preparer
	log      *logger.Logger
	spec     string

	mu      sync.Mutex
	cron    *cron.Cron
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*Rotator)(nil)

// New creates a Rotator. An empty spec falls back to midnight UTC.
func New(preparer Preparer, spec string, log *logger.Logger) *Rotator {
	if log == nil {
		log = logger.NewDefault("rotation")
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = defaultSpec
	}
	return &Rotator{preparer: preparer, log: log, spec: spec}
}

// Name implements system.Service.
func (r *Rotator) Name() string { return "daily-rotation" }

// Start schedules the rollover and warms today's puzzle in the
// background.
func (r *Rotator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(r.spec, r.rotate); err != nil {
		return fmt.Errorf("schedule %q: %w", r.spec, err)
	}
	r.cron = c
	c.Start()
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.rotate()
	}()

	r.log.WithField("schedule", r.spec).Info("daily rotation started")
	return nil
}

// Stop halts the schedule and waits for any in-flight rollover, or for
// ctx to expire.
func (r *Rotator) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	cronCtx := r.cron.Stop()
	r.running = false

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		<-cronCtx.Done()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("daily rotation stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Rotator) rotate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	puzzle, _, err := r.preparer.Daily(ctx, time.Now())
	if err != nil {
		r.log.WithError(err).Warn("daily rotation failed")
		return
	}
	r.log.WithField("date", puzzle.Date).WithField("source", puzzle.Source).Info("daily puzzle ready")
}
