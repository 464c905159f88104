package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task names understood by the tracker
const (
	TaskMediaAddToWiki      = "media.add_to_wiki"
	TaskMediaRemoveFromWiki = "media.remove_from_wiki"
	TaskMediaStoreData      = "media.store_data"
	TaskTicketUpdateMedia   = "ticket.update_media"
)

// Task is one persisted unit of delayed work
type Task struct {
	ID          int64
	Name        string
	Params      json.RawMessage
	RunAt       time.Time
	Attempts    int
	MaxAttempts int
	LastError   string
	LockedUntil *time.Time
	Created     time.Time
}

// NewTask creates a task with JSON encoded params
func NewTask(name string, params any, runAt time.Time, maxAttempts int) (*Task, error) {
	if name == "" {
		return nil, ErrInvalidTask
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode task params: %w", err)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Task{
		Name:        name,
		Params:      raw,
		RunAt:       runAt,
		MaxAttempts: maxAttempts,
		Created:     time.Now(),
	}, nil
}

// Decode unmarshals the task params into v
func (t *Task) Decode(v any) error {
	if err := json.Unmarshal(t.Params, v); err != nil {
		return fmt.Errorf("decode params of %s: %w", t.Name, err)
	}
	return nil
}

// Exhausted reports whether no attempts remain
func (t *Task) Exhausted() bool {
	return t.Attempts >= t.MaxAttempts
}

// Store persists tasks. Claim must hand each task to at most one caller
// until its lock expires.
type Store interface {
	Enqueue(ctx context.Context, task *Task) error
	// ExistsPending reports whether a task with the same name and params
	// is still waiting or running
	ExistsPending(ctx context.Context, name string, params json.RawMessage) (bool, error)
	// Claim locks up to limit due tasks and increments their attempts
	Claim(ctx context.Context, now time.Time, limit int, lockFor time.Duration) ([]*Task, error)
	Complete(ctx context.Context, id int64) error
	Retry(ctx context.Context, id int64, runAt time.Time, lastError string) error
	// Fail removes a task that used up its attempts
	Fail(ctx context.Context, id int64, lastError string) error
}

// Handler runs one task
type Handler func(ctx context.Context, task *Task) error

// FailureNotifier is told about tasks that failed for good
type FailureNotifier interface {
	TaskFailed(ctx context.Context, task *Task, err error)
}

// Observer is told about every processed task
type Observer interface {
	TaskProcessed(ctx context.Context, name, outcome string, elapsed time.Duration)
}

// Outcomes passed to Observer
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailed  = "failed"
)

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled      bool
	Workers      int
	PollInterval time.Duration
	DefaultDelay time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	LockTimeout  time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      true,
		Workers:      2,
		PollInterval: 5 * time.Second,
		DefaultDelay: 10 * time.Second,
		MaxAttempts:  5,
		RetryBackoff: 30 * time.Second,
		LockTimeout:  5 * time.Minute,
	}
}

// Scheduler polls the task store and runs due tasks on a worker pool
type Scheduler struct {
	config   SchedulerConfig
	store    Store
	logger   *zap.Logger
	notifier FailureNotifier
	observer Observer
	now      func() time.Time

	handlers map[string]Handler

	jobs      chan *Task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, store Store, logger *zap.Logger) *Scheduler {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		store:    store,
		logger:   logger,
		now:      time.Now,
		handlers: make(map[string]Handler),
		jobs:     make(chan *Task, config.Workers*4),
	}
}

// SetFailureNotifier installs the notifier for permanently failed tasks
func (s *Scheduler) SetFailureNotifier(n FailureNotifier) {
	s.notifier = n
}

// SetObserver installs an observer for processed tasks
func (s *Scheduler) SetObserver(o Observer) {
	s.observer = o
}

// Register binds a handler to a task name
func (s *Scheduler) Register(name string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

// Enqueue stores a task to run after the default delay
func (s *Scheduler) Enqueue(ctx context.Context, name string, params any) error {
	return s.EnqueueAt(ctx, name, params, s.now().Add(s.config.DefaultDelay))
}

// EnqueueAt stores a task to run at runAt
func (s *Scheduler) EnqueueAt(ctx context.Context, name string, params any, runAt time.Time) error {
	task, err := NewTask(name, params, runAt, s.config.MaxAttempts)
	if err != nil {
		return err
	}
	if err := s.store.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}
	s.logger.Debug("Task enqueued",
		zap.String("task", name),
		zap.Int64("task_id", task.ID),
		zap.Time("run_at", runAt),
	)
	return nil
}

// EnqueueUnique stores a task unless an identical one is still pending.
// It reports whether a task was stored.
func (s *Scheduler) EnqueueUnique(ctx context.Context, name string, params any) (bool, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return false, fmt.Errorf("encode task params: %w", err)
	}
	exists, err := s.store.ExistsPending(ctx, name, raw)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return true, s.Enqueue(ctx, name, params)
}

// Start starts the poll loop and the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Task scheduler disabled, tasks stay queued")
		return nil
	}
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Info("Task scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("poll_interval", s.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Task scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Task scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

// dispatchDue claims due tasks and hands them to the workers
func (s *Scheduler) dispatchDue(ctx context.Context) {
	tasks, err := s.store.Claim(ctx, s.now(), cap(s.jobs), s.config.LockTimeout)
	if err != nil {
		s.logger.Error("Failed to claim due tasks", zap.Error(err))
		return
	}
	for _, task := range tasks {
		select {
		case s.jobs <- task:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.jobs:
			s.Process(ctx, task)
		}
	}
}

// RunDue claims and runs every due task on the calling goroutine. Used by
// the CLI to drain the queue without starting workers.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	processed := 0
	for {
		tasks, err := s.store.Claim(ctx, s.now(), s.config.Workers*4, s.config.LockTimeout)
		if err != nil {
			return processed, err
		}
		if len(tasks) == 0 {
			return processed, nil
		}
		for _, task := range tasks {
			s.Process(ctx, task)
			processed++
		}
	}
}

// Process runs one claimed task and records the outcome
func (s *Scheduler) Process(ctx context.Context, task *Task) {
	start := s.now()
	log := s.logger.With(
		zap.String("task", task.Name),
		zap.Int64("task_id", task.ID),
		zap.Int("attempt", task.Attempts),
	)

	s.mu.Lock()
	handler, ok := s.handlers[task.Name]
	s.mu.Unlock()

	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownTask, task.Name)
	} else {
		err = s.run(ctx, handler, task)
	}

	outcome := OutcomeSuccess
	switch {
	case err == nil:
		if cerr := s.store.Complete(ctx, task.ID); cerr != nil {
			log.Error("Failed to complete task", zap.Error(cerr))
		}
		log.Info("Task completed", zap.Duration("elapsed", s.now().Sub(start)))
	case task.Exhausted() || errors.Is(err, ErrUnknownTask):
		outcome = OutcomeFailed
		log.Error("Task failed permanently", zap.Error(err))
		if ferr := s.store.Fail(ctx, task.ID, err.Error()); ferr != nil {
			log.Error("Failed to drop task", zap.Error(ferr))
		}
		if s.notifier != nil {
			s.notifier.TaskFailed(ctx, task, err)
		}
	default:
		outcome = OutcomeRetry
		next := s.now().Add(s.backoff(task.Attempts))
		log.Warn("Task failed, will retry", zap.Error(err), zap.Time("next_run", next))
		if rerr := s.store.Retry(ctx, task.ID, next, err.Error()); rerr != nil {
			log.Error("Failed to reschedule task", zap.Error(rerr))
		}
	}

	if s.observer != nil {
		s.observer.TaskProcessed(ctx, task.Name, outcome, s.now().Sub(start))
	}
}

// run calls the handler, turning a panic into an error
func (s *Scheduler) run(ctx context.Context, h Handler, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	jobCtx, cancel := context.WithTimeout(ctx, s.config.LockTimeout)
	defer cancel()
	return h(jobCtx, task)
}

// backoff grows linearly with the attempt count
func (s *Scheduler) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts) * s.config.RetryBackoff
}
