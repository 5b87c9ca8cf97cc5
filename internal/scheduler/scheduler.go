// Package scheduler publishes queued products on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/raine/telegram-shafa-bot/internal/publish"
	"github.com/rs/zerolog/log"
)

// Publisher is the part of publish.Publisher the scheduler drives.
type Publisher interface {
	PublishNext(ctx context.Context) (*publish.Result, error)
}

// ResultFunc is told about every run that created a product or failed.
// Runs that find an empty queue are not reported.
type ResultFunc func(res *publish.Result, err error)

// Scheduler runs PublishNext every interval. The interval can be changed
// while running; zero disables automatic publishing.
type Scheduler struct {
	scheduler gocron.Scheduler
	publisher Publisher
	onResult  ResultFunc

	mu       sync.Mutex
	ctx      context.Context
	jobID    uuid.UUID
	hasJob   bool
	interval time.Duration
}

func New(publisher Publisher, onResult ResultFunc) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		scheduler: s,
		publisher: publisher,
		onResult:  onResult,
		ctx:       context.Background(),
	}, nil
}

// Start begins scheduling with the given interval. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.SetInterval(interval); err != nil {
		return err
	}
	s.scheduler.Start()
	log.Info().Dur("interval", interval).Msg("scheduler started")
	return nil
}

// Interval returns the current interval, zero when disabled.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval replaces the publish job.
func (s *Scheduler) SetInterval(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasJob {
		if err := s.scheduler.RemoveJob(s.jobID); err != nil {
			return err
		}
		s.hasJob = false
	}
	s.interval = 0
	if interval <= 0 {
		log.Info().Msg("auto publish disabled")
		return nil
	}

	ctx := s.ctx
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.run(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.jobID = job.ID()
	s.hasJob = true
	s.interval = interval
	log.Info().Dur("interval", interval).Msg("auto publish enabled")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	res, err := s.publisher.PublishNext(ctx)
	if errors.Is(err, publish.ErrNothingToPublish) {
		log.Debug().Msg("auto publish: queue empty")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("auto publish failed")
	} else {
		log.Info().Str("productID", res.ProductID).Str("name", res.Name).Msg("auto published product")
	}
	if s.onResult != nil {
		s.onResult(res, err)
	}
}

func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}
}
