package tracking

import (
	"context"
	"time"

	"extsync/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the poll batch on an interval. Singleton mode keeps two
// batches from overlapping inside one process.
type Scheduler struct {
	poller   *Poller
	interval time.Duration
	limit    int
	statuses []domain.PackageStatus
	// -----
	sched gocron.Scheduler
}

func NewScheduler(poller *Poller, interval time.Duration, limit int, statuses []domain.PackageStatus) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if limit <= 0 {
		limit = 100
	}
	if len(statuses) == 0 {
		statuses = domain.DefaultPollStatuses
	}
	return &Scheduler{poller: poller, interval: interval, limit: limit, statuses: statuses}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if _, pollErr := s.poller.Poll(jobCtx, execID, s.statuses, s.limit, false); pollErr != nil {
			logrus.Errorf("Tracking poll job %s failed: %v", execID, pollErr)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Tracking scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}
