package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/alertlog"
)

// RetentionService periodically deletes alert log records older than the
// retention window. The rest of the monitor has no dependency on this sweep
// completing; a failed run only means old records linger until the next one.
type RetentionService struct {
	Store    alertlog.Store
	Window   time.Duration
	Interval time.Duration
	Logger   zerolog.Logger

	now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetentionService initializes a new RetentionService.
func NewRetentionService(store alertlog.Store, window, interval time.Duration, logger zerolog.Logger) *RetentionService {
	return &RetentionService{
		Store:    store,
		Window:   window,
		Interval: interval,
		Logger:   logger,
		now:      time.Now,
	}
}

// Start launches the sweep loop in a separate goroutine.
func (r *RetentionService) Start() error {
	if r.ctx != nil {
		r.Logger.Warn().Msg("RetentionService is already running")
		return errors.New("retention service is already running")
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runSweepLoop()
	}()

	r.Logger.Info().Dur("window", r.Window).Msg("RetentionService started successfully")
	return nil
}

// Stop gracefully stops the retention service.
func (r *RetentionService) Stop() error {
	if r.ctx == nil {
		r.Logger.Warn().Msg("RetentionService is not running")
		return errors.New("retention service is not running")
	}

	r.cancel()
	r.wg.Wait()

	r.ctx = nil
	r.cancel = nil

	r.Logger.Info().Msg("RetentionService stopped successfully")
	return nil
}

func (r *RetentionService) runSweepLoop() {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	// One sweep at startup so a long-stopped monitor catches up immediately.
	r.sweep()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.ctx.Done():
			r.Logger.Info().Msg("RetentionService stopping gracefully")
			return
		}
	}
}

func (r *RetentionService) sweep() {
	ctx, cancel := context.WithTimeout(r.ctx, 30*time.Second)
	defer cancel()

	cutoff := r.now().Add(-r.Window)
	deleted, err := r.Store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Alert log retention sweep failed")
		return
	}
	if deleted > 0 {
		r.Logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned expired alert log records")
	}
}
