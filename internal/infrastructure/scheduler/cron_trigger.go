package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc is a periodic job such as the notification digest
type JobFunc func(ctx context.Context) error

// IntervalTriggerConfig holds configuration for the interval trigger
type IntervalTriggerConfig struct {
	Name     string
	Interval time.Duration
	// RunOnStart fires the job once right after Start
	RunOnStart bool
}

// IntervalTrigger runs a job every interval. A run is skipped while the
// previous one is still in progress.
type IntervalTrigger struct {
	config IntervalTriggerConfig
	job    JobFunc
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool
	lastRun   time.Time
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(config IntervalTriggerConfig, job JobFunc, logger *zap.Logger) *IntervalTrigger {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &IntervalTrigger{
		config: config,
		job:    job,
		logger: logger,
	}
}

// Start starts the trigger
func (c *IntervalTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Interval trigger started",
		zap.String("job", c.config.Name),
		zap.Duration("interval", c.config.Interval),
	)
	return nil
}

// Stop stops the trigger
func (c *IntervalTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Interval trigger stopped", zap.String("job", c.config.Name))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *IntervalTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	if c.config.RunOnStart {
		c.Trigger(ctx)
	}

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Trigger(ctx)
		}
	}
}

// Trigger runs the job now unless a run is already in progress
func (c *IntervalTrigger) Trigger(ctx context.Context) bool {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("Skipping job, previous run still in progress", zap.String("job", c.config.Name))
		return false
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.lastRun = time.Now()
		c.mu.Unlock()
	}()

	start := time.Now()
	if err := c.job(ctx); err != nil {
		c.logger.Error("Periodic job failed", zap.String("job", c.config.Name), zap.Error(err))
		return true
	}
	c.logger.Info("Periodic job finished",
		zap.String("job", c.config.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return true
}

// LastRun returns when the job last finished, zero if never
func (c *IntervalTrigger) LastRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}
