package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const DefaultTaskTimeout = 5 * time.Minute

type watch struct {
	poller  Poller
	entryID cron.EntryID
	running sync.Mutex
}

type Scheduler struct {
	cron        *cron.Cron
	watches     map[string]*watch
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
}

func NewScheduler(taskTimeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}

	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		watches:     make(map[string]*watch),
		taskTimeout: taskTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Add registers poller to tick on schedule, a standard cron expression or
// an "@every" descriptor.
func (s *Scheduler) Add(poller Poller, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := poller.Name()
	if _, exists := s.watches[name]; exists {
		return fmt.Errorf("app '%s' is already scheduled", name)
	}

	w := &watch{poller: poller}
	entryID, err := s.cron.AddFunc(schedule, func() { s.tick(w) })
	if err != nil {
		return fmt.Errorf("failed to schedule app '%s': %w", name, err)
	}
	w.entryID = entryID
	s.watches[name] = w

	slog.Debug("App scheduled", "app", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.watches) == 0 {
		slog.Debug("No apps to schedule")
	}

	for _, w := range s.watches {
		s.wg.Add(1)
		go func(w *watch) {
			defer s.wg.Done()
			s.tick(w)
		}(w)
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// RunNow ticks the named app immediately in the background.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	w, ok := s.watches[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrAppNotFound, name)
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	if !w.running.TryLock() {
		return fmt.Errorf("%w: %s", ErrTickInProgress, name)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer w.running.Unlock()
		s.execute(w.poller)
	}()

	return nil
}

func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	w, ok := s.watches[name]
	s.mu.RUnlock()

	if !ok {
		return time.Time{}, false
	}

	next := s.cron.Entry(w.entryID).Next
	return next, !next.IsZero()
}

func (s *Scheduler) tick(w *watch) {
	if !w.running.TryLock() {
		slog.Debug("Tick still running, skipping", "app", w.poller.Name())
		return
	}
	defer w.running.Unlock()

	s.execute(w.poller)
}

func (s *Scheduler) execute(poller Poller) {
	if s.ctx.Err() != nil {
		return
	}

	task := NewPollTask(poller)
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "app", task.GetAppName(), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}
}
