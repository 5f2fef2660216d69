package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/review-hook/app/review"
)

// Poller is one watched app driven by the scheduler.
type Poller interface {
	Name() string
	State() review.State
	Tick(ctx context.Context) error
	Status() review.Status
}

type PollTask struct {
	Task
	poller Poller
}

// NewPollTask creates a task for the next tick of poller. A poller that has
// not taken its initial snapshot yet yields a snapshot task.
func NewPollTask(poller Poller) *PollTask {
	taskType := TaskTypePoll
	if poller.State() == review.StateInit {
		taskType = TaskTypeSnapshot
	}

	return &PollTask{
		Task:   NewTask(taskType, poller.Name()),
		poller: poller,
	}
}

func (t *PollTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	before := t.poller.Status().Notified
	if err := t.poller.Tick(ctx); err != nil {
		return err
	}
	status := t.poller.Status()

	slog.Info("Task completed",
		"type", string(t.Type),
		"app", t.AppName,
		"duration", t.GetDuration(),
		"state", status.State,
		"published", len(status.PublishedIDs),
		"new", status.Notified-before)

	return nil
}
