package feed

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRegion   = "ng"
	DefaultInterval = 3600 // seconds
	DefaultTimeout  = 30   // seconds
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AppStoreFeedURL builds the customer reviews feed URL for an App Store app.
func AppStoreFeedURL(region, appID string) string {
	return fmt.Sprintf("https://itunes.apple.com/%s/rss/customerreviews/id=%s/sortBy=mostRecent/xml", region, appID)
}

type ConfigCache struct {
	appsDir string
	cache   map[string]*Config
	mu      sync.RWMutex
}

func NewConfigCache(appsDir string) *ConfigCache {
	return &ConfigCache{
		appsDir: appsDir,
		cache:   make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.appsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.appsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		baseName := strings.TrimSuffix(fileName, ".yml")

		configs, err := cc.LoadConfig(baseName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		for _, appConfig := range configs {
			slog.Debug("Configuration loaded", "app", appConfig.Name, "store", appConfig.Store, "app_id", appConfig.AppID, "schedule", appConfig.GetSchedule())
		}
	}

	return nil
}

// LoadConfig reads <baseName>.yml and caches one Config per app ID it lists.
func (cc *ConfigCache) LoadConfig(baseName string) ([]*Config, error) {
	configFile := cc.getConfigFilePath(baseName)
	raw, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	if len(raw.AppIDs) == 0 {
		return nil, fmt.Errorf("invalid config %s: app_id is required", configFile)
	}

	configs := make([]*Config, 0, len(raw.AppIDs))
	for _, appID := range raw.AppIDs {
		appConfig := *raw
		appConfig.AppIDs = nil
		appConfig.AppID = strings.TrimSpace(appID)
		appConfig.Name = baseName
		if len(raw.AppIDs) > 1 {
			appConfig.Name = baseName + "-" + appConfig.AppID
		}

		if err := cc.applyDefaults(&appConfig); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
		}

		if err := cc.validateConfig(&appConfig); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
		}

		configs = append(configs, &appConfig)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	for _, appConfig := range configs {
		if _, exists := cc.cache[appConfig.Name]; exists {
			slog.Warn("Replacing cached configuration", "app", appConfig.Name)
		}
		cc.cache[appConfig.Name] = appConfig
	}

	return configs, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	appConfig, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("app config with name '%s' not found", name)
	}
	return appConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

// GetSortedConfigs returns the cached configs ordered by name.
func (cc *ConfigCache) GetSortedConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*Config, 0, len(cc.cache))
	for _, v := range cc.cache {
		configs = append(configs, v)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})
	return configs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var appConfig Config
	if err := yaml.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &appConfig, nil
}

func (cc *ConfigCache) applyDefaults(appConfig *Config) error {
	if appConfig.Store == "" {
		// Google Play package names are dotted, App Store IDs are numeric.
		if strings.Contains(appConfig.AppID, ".") {
			appConfig.Store = StoreGooglePlay
		} else {
			appConfig.Store = StoreAppStore
		}
	}

	region, err := language.ParseRegion(cmp.Or(strings.TrimSpace(appConfig.Region), DefaultRegion))
	if err != nil {
		return fmt.Errorf("invalid region %q: %w", appConfig.Region, err)
	}
	appConfig.Region = strings.ToLower(region.String())

	if appConfig.FeedURL == "" && appConfig.Store == StoreAppStore {
		appConfig.FeedURL = AppStoreFeedURL(appConfig.Region, appConfig.AppID)
	}

	if appConfig.Interval == 0 {
		appConfig.Interval = DefaultInterval
	}
	if appConfig.Timeout == 0 {
		appConfig.Timeout = DefaultTimeout
	}

	return nil
}

func (cc *ConfigCache) validateConfig(appConfig *Config) error {
	if appConfig == nil {
		return fmt.Errorf("appConfig is nil")
	}

	if appConfig.Store == StoreGooglePlay && appConfig.FeedURL == "" {
		return fmt.Errorf("feed_url is required for %s", StoreGooglePlay)
	}

	if err := validate.Struct(appConfig); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if appConfig.Schedule != "" {
		if _, err := cron.ParseStandard(appConfig.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", appConfig.Schedule, err)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(baseName string) string {
	return filepath.Join(cc.appsDir, baseName+".yml")
}
