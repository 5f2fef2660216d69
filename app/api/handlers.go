package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/review-hook/app/database"
	"github.com/lysyi3m/review-hook/app/feed"
	"github.com/lysyi3m/review-hook/app/review"
	"github.com/lysyi3m/review-hook/app/tasks"
)

const (
	defaultDeliveryLimit = 20
	maxDeliveryLimit     = 100
)

func NewHandler(configCache *feed.ConfigCache, watchers []Watcher, deliveryRepo database.DeliveryRepository,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	byName := make(map[string]Watcher, len(watchers))
	for _, w := range watchers {
		byName[w.Name()] = w
	}

	return &Handler{
		configCache:  configCache,
		watchers:     byName,
		deliveryRepo: deliveryRepo,
		scheduler:    scheduler,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"apps":      h.configCache.GetConfigCount(),
		"version":   h.version,
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListApps(c *gin.Context) {
	configs := h.configCache.GetSortedConfigs()

	apps := make([]map[string]interface{}, 0, len(configs))
	for _, appConfig := range configs {
		appInfo := map[string]interface{}{
			"name":     appConfig.Name,
			"app_id":   appConfig.AppID,
			"store":    appConfig.Store,
			"region":   appConfig.Region,
			"schedule": appConfig.GetSchedule(),
		}

		if w, ok := h.watchers[appConfig.Name]; ok {
			status := w.Status()
			appInfo["app_name"] = review.AppName(appConfig, status.AppInfo)
			appInfo["state"] = status.State
			appInfo["published"] = len(status.PublishedIDs)
			appInfo["notified"] = status.Notified
			appInfo["last_polled_at"] = status.LastPolledAt
		}

		if next, ok := h.scheduler.NextRun(appConfig.Name); ok {
			appInfo["next_poll_at"] = next
		}

		apps = append(apps, appInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"apps":  apps,
		"total": len(apps),
	})
}

func (h *Handler) APIGetAppDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	appConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("App configuration not found", "app", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "App configuration not found"})
		return
	}

	limit := defaultDeliveryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxDeliveryLimit)
	}

	details := map[string]interface{}{
		"name":     name,
		"app_id":   appConfig.AppID,
		"store":    appConfig.Store,
		"region":   appConfig.Region,
		"feed_url": appConfig.FeedURL,
		"schedule": appConfig.GetSchedule(),
		"timeout":  appConfig.GetTimeout().String(),
		"welcome":  appConfig.Welcome,
	}

	if w, ok := h.watchers[name]; ok {
		status := w.Status()
		details["app_name"] = review.AppName(appConfig, status.AppInfo)
		details["status"] = status
	}

	if next, ok := h.scheduler.NextRun(name); ok {
		details["next_poll_at"] = next
	}

	deliveries, err := h.deliveryRepo.GetRecentDeliveries(name, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_deliveries", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	details["deliveries"] = deliveries

	if stats, err := h.deliveryRepo.GetDeliveryStats(name); err == nil {
		details["delivery_stats"] = stats
	} else {
		slog.Warn("Failed to load delivery stats", "app", name, "error", err)
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIPollApp(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	err := h.scheduler.RunNow(name)
	switch {
	case errors.Is(err, tasks.ErrAppNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	case errors.Is(err, tasks.ErrTickInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Poll already in progress",
			"details": err.Error(),
		})
		return
	case err != nil:
		slog.Error("Error triggering poll", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to trigger poll",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Poll triggered",
		"app":     name,
	})
}
