package tasks

import (
	"errors"
	"time"
)

var (
	ErrAppNotFound    = errors.New("app not found")
	ErrTickInProgress = errors.New("tick already in progress")
)

// TaskSchedulerInterface defines the scheduling operations used by main and
// the API. Every registered app ticks once at Start and then on its own
// schedule; ticks of one app never overlap.
//
//	scheduler := NewScheduler(taskTimeout)
//	scheduler.Add(controller, config.GetSchedule())
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	RunNow(name string) error
	NextRun(name string) (time.Time, bool)
}
