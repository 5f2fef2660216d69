package api

import (
	"github.com/lysyi3m/review-hook/app/database"
	"github.com/lysyi3m/review-hook/app/feed"
	"github.com/lysyi3m/review-hook/app/review"
	"github.com/lysyi3m/review-hook/app/tasks"
)

// Watcher exposes the live state of one watched app.
type Watcher interface {
	Name() string
	Status() review.Status
}

var _ Watcher = (*review.Controller)(nil)

type Handler struct {
	configCache  *feed.ConfigCache
	watchers     map[string]Watcher
	deliveryRepo database.DeliveryRepository
	scheduler    tasks.TaskSchedulerInterface
	version      string
}
