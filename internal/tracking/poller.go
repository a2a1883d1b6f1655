package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"extsync/internal/adapters"
	"extsync/internal/domain"
	"extsync/internal/metrics"

	"github.com/sirupsen/logrus"
)

const numWorkers = 5
const taskAttempts = 3
const taskRetryDelay = 2 * time.Second

// PackageUpdater is what the poller fans out to; satisfied by *Service.
type PackageUpdater interface {
	UpdatePackage(ctx context.Context, pkg domain.Package, force bool) error
}

// Poller selects the eligible batch and fans one update task per package
// out over a bounded worker pool. Tasks are independent; one package's
// failure never fails the batch.
type Poller struct {
	packages adapters.PackageRepository
	updater  PackageUpdater
}

func NewPoller(packages adapters.PackageRepository, updater PackageUpdater) *Poller {
	return &Poller{packages: packages, updater: updater}
}

// Poll runs one batch and returns how many packages were updated
// successfully. An empty selection is a normal outcome.
func (p *Poller) Poll(ctx context.Context, execID string, statuses []domain.PackageStatus, limit int, force bool) (int, error) {
	pkgs, err := p.packages.FindPollable(ctx, statuses, limit)
	if err != nil {
		return 0, err
	}
	if len(pkgs) == 0 {
		logrus.Infof("Nothing to poll this time; execID: %s", execID)
		return 0, nil
	}

	logrus.Infof("%d pollable packages were found, start polling; execID: %s", len(pkgs), execID)

	workQueue := make(chan domain.Package, len(pkgs))
	for _, pkg := range pkgs {
		workQueue <- pkg
	}
	close(workQueue)

	resultCh := make(chan error, len(pkgs))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.runWorker(ctx, workerID, workQueue, force, resultCh)
		}(i)
	}

	wg.Wait()
	close(resultCh)

	updated := 0
	for res := range resultCh {
		if res == nil {
			updated++
		}
	}

	logrus.Infof("%d of %d packages were successfully polled; execID: %s", updated, len(pkgs), execID)
	return updated, nil
}

func (p *Poller) runWorker(ctx context.Context, workerID int, workQueue <-chan domain.Package, force bool, resultCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkg, ok := <-workQueue:
			if !ok {
				return
			}
			resultCh <- p.updateWithRetry(ctx, workerID, pkg, force)
		}
	}
}

// updateWithRetry runs one package task. Provider-class errors are soft:
// the provider already retried or cooled down, so the task just logs and
// stops. Unexpected errors get the runner policy: up to taskAttempts
// attempts with a fixed delay, then a terminal failure log.
func (p *Poller) updateWithRetry(ctx context.Context, workerID int, pkg domain.Package, force bool) error {
	var lastErr error
	for attempt := 1; attempt <= taskAttempts; attempt++ {
		err := p.updater.UpdatePackage(ctx, pkg, force)
		if err == nil {
			return nil
		}
		lastErr = err

		var provErr *domain.ProviderError
		if errors.As(err, &provErr) {
			metrics.TrackingPolls.WithLabelValues("provider_error").Inc()
			logrus.WithError(err).WithFields(logrus.Fields{
				"worker":  workerID,
				"package": pkg.ID,
				"kind":    string(provErr.Kind),
			}).Warn("package poll hit provider error, giving up on it this run")
			return err
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"worker":  workerID,
			"package": pkg.ID,
			"attempt": attempt,
		}).Error("package poll failed unexpectedly")

		if attempt < taskAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(taskRetryDelay):
			}
		}
	}

	metrics.TrackingPolls.WithLabelValues("failure").Inc()
	logrus.WithError(lastErr).WithField("package", pkg.ID).
		Errorf("package poll gave up after %d attempts", taskAttempts)
	return lastErr
}
