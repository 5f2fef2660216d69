package feed

import (
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"
)

type Store string

const (
	StoreAppStore   Store = "app-store"
	StoreGooglePlay Store = "google-play"
)

// Label is the human readable store name used in messages.
func (s Store) Label() string {
	if s == StoreGooglePlay {
		return "Google Play"
	}
	return "App Store"
}

// Feed processing types

type Metadata struct {
	Title    string
	Link     string
	ImageURL string
}

// Batch is the result of one feed fetch, items in feed order.
type Batch struct {
	Metadata Metadata
	Items    []*gofeed.Item
}

// AppPage holds app details scraped from a store listing page.
type AppPage struct {
	Name    string
	IconURL string
	URL     string
}

// Configuration types

type Config struct {
	Name  string `yaml:"-"` // Derived from filename (without .yml extension)
	AppID string `yaml:"-" validate:"required"`

	Store       Store  `yaml:"store" validate:"oneof=app-store google-play"`
	AppIDs      AppIDs `yaml:"app_id"`
	Region      string `yaml:"region" validate:"len=2"`
	FeedURL     string `yaml:"feed_url" validate:"required,url"`
	Interval    int    `yaml:"interval" validate:"gte=0"` // seconds
	Schedule    string `yaml:"schedule"`                  // cron expression, overrides interval
	Timeout     int    `yaml:"timeout" validate:"gte=0"`  // seconds
	WebhookURL  string `yaml:"webhook_url" validate:"required,http_url"`
	AppName     string `yaml:"app_name"`
	AppIcon     string `yaml:"app_icon" validate:"omitempty,url"`
	AppLink     string `yaml:"app_link" validate:"omitempty,url"`
	BotUsername string `yaml:"bot_username"`
	BotIcon     string `yaml:"bot_icon" validate:"omitempty,url"`
	Channel     string `yaml:"channel"`
	Welcome     bool   `yaml:"welcome"`
	Debug       bool   `yaml:"debug"`
}

func (c *Config) GetInterval() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval * time.Second
	}
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetSchedule returns the cron expression used to poll this app.
func (c *Config) GetSchedule() string {
	if c.Schedule != "" {
		return c.Schedule
	}
	return fmt.Sprintf("@every %s", c.GetInterval())
}

// AppIDs accepts either a single app ID or a list of them.
type AppIDs []string

func (a *AppIDs) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = AppIDs{value.Value}
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := value.Decode(&ids); err != nil {
			return fmt.Errorf("failed to decode app_id list: %w", err)
		}
		*a = ids
		return nil
	default:
		return fmt.Errorf("app_id must be a string or a list of strings")
	}
}
