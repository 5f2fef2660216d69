package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/review-hook/app/api"
	"github.com/lysyi3m/review-hook/app/cfg"
	"github.com/lysyi3m/review-hook/app/database"
	"github.com/lysyi3m/review-hook/app/feed"
	"github.com/lysyi3m/review-hook/app/notify"
	"github.com/lysyi3m/review-hook/app/review"
	"github.com/lysyi3m/review-hook/app/tasks"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Review Hook stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	c, err := cfg.Load()
	if err != nil {
		return err
	}
	if c == nil {
		// Help was requested.
		return nil
	}

	slog.SetDefault(newLogger(c.Debug))
	slog.Info("Starting Review Hook", "version", c.Version, "apps_dir", c.AppsDir)

	configCache := feed.NewConfigCache(c.AppsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load app configurations: %w", err)
	}
	slog.Info("App configurations loaded", "count", configCache.GetConfigCount())

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	deliveryRepo := database.NewDeliveryRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	dispatcher := notify.NewDispatcher(notify.NewWebhookSender(httpClient, c.UserAgent), deliveryRepo, c.DeliveryRate, notify.DefaultQueueSize)
	dispatcher.Start()

	parser := feed.NewParser()
	scheduler := tasks.NewScheduler(tasks.DefaultTaskTimeout)

	configs := configCache.GetSortedConfigs()
	watchers := make([]api.Watcher, 0, len(configs))
	for _, appConfig := range configs {
		source := feed.NewHTTPSource(appConfig.FeedURL, appConfig.GetTimeout(), httpClient, parser, c.UserAgent)

		var pages review.PageLookup
		if appConfig.Store == feed.StoreGooglePlay {
			pages = feed.NewAppPageLookup(feed.GooglePlayBaseURL, appConfig.GetTimeout(), httpClient, c.UserAgent)
		}

		controller := review.NewController(appConfig, source, pages, dispatcher, newLogger(c.Debug || appConfig.Debug))
		if err := scheduler.Add(controller, appConfig.GetSchedule()); err != nil {
			return err
		}
		watchers = append(watchers, controller)
	}

	handler := api.NewHandler(configCache, watchers, deliveryRepo, scheduler, c.Version)
	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down gracefully")
		notifySystemd(daemon.SdNotifyStopping)

		scheduler.Stop()
		slog.Info("Scheduler stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		dispatcher.Stop(shutdownCtx)
		slog.Info("Dispatcher stopped")

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		slog.Info("HTTP server stopped")
		return nil
	})

	notifySystemd(daemon.SdNotifyReady)
	slog.Info("Review Hook started", "apps", len(watchers))

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Review Hook shutdown complete")
	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		slog.Warn("Failed to notify systemd", "state", state, "error", err)
		return
	}
	if sent {
		slog.Debug("Notified systemd", "state", state)
	}
}
