package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/review-hook/app/database"
	"github.com/lysyi3m/review-hook/app/feed"
	"github.com/lysyi3m/review-hook/app/notify"
)

type State int

const (
	StateInit State = iota
	StateSteady
)

func (s State) String() string {
	if s == StateSteady {
		return "steady"
	}
	return "init"
}

// Dispatcher hands a payload off for asynchronous delivery.
type Dispatcher interface {
	Dispatch(req notify.Request)
}

// PageLookup reads app details from a store listing page.
type PageLookup interface {
	Lookup(ctx context.Context, appID, region string) (*feed.AppPage, error)
}

// Status is a point in time snapshot of a controller.
type Status struct {
	Name         string     `json:"name"`
	AppID        string     `json:"app_id"`
	Store        feed.Store `json:"store"`
	State        string     `json:"state"`
	AppInfo      AppInfo    `json:"app_info"`
	PublishedIDs []string   `json:"published_ids"`
	Notified     int        `json:"notified"`
	LastPolledAt *time.Time `json:"last_polled_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// Controller watches the review feed of one app. The first successful tick
// takes a snapshot of existing reviews without notifying; later ticks
// notify every review not seen before.
type Controller struct {
	config     *feed.Config
	source     feed.Source
	pages      PageLookup
	dispatcher Dispatcher
	normalizer *Normalizer
	logger     *slog.Logger

	tickMu sync.Mutex

	mu           sync.Mutex
	state        State
	store        *PublishedStore
	info         AppInfo
	notified     int
	lastPolledAt *time.Time
	lastError    string
}

// NewController creates a controller in the init state. pages may be nil.
func NewController(config *feed.Config, source feed.Source, pages PageLookup, dispatcher Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		config:     config,
		source:     source,
		pages:      pages,
		dispatcher: dispatcher,
		normalizer: NewNormalizer(config.Store),
		logger:     logger.With("app", config.Name),
		state:      StateInit,
		store:      NewPublishedStore(),
	}
}

func (c *Controller) Name() string {
	return c.config.Name
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tick runs one polling step. Feed errors are returned after being
// recorded; the controller state is left unchanged. Network calls happen
// without holding the state lock so Status stays responsive.
func (c *Controller) Tick(ctx context.Context) error {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	state := c.state
	now := time.Now()
	c.lastPolledAt = &now
	c.mu.Unlock()

	var page *feed.AppPage
	if state == StateInit && c.config.Store == feed.StoreGooglePlay {
		page = c.lookupPage(ctx)
	}

	batch, err := c.source.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if state == StateInit {
			c.logger.Error("Failed to fetch initial reviews", "error", err)
			err = fmt.Errorf("failed to fetch initial reviews: %w", err)
		} else {
			c.logger.Error("Failed to fetch reviews", "error", err)
			err = fmt.Errorf("failed to fetch reviews: %w", err)
		}
		c.lastError = err.Error()
		return err
	}

	if state == StateInit {
		c.snapshot(batch, page)
	} else if pollErr := c.poll(ctx, batch); pollErr != nil {
		c.lastError = pollErr.Error()
		return pollErr
	}

	c.lastError = ""
	return nil
}

// HandleItem processes one raw feed item as a steady state tick would.
func (c *Controller) HandleItem(ctx context.Context, item *gofeed.Item, feedLink string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handleItem(ctx, item, feedLink)
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Name:         c.config.Name,
		AppID:        c.config.AppID,
		Store:        c.config.Store,
		State:        c.state.String(),
		AppInfo:      c.info,
		PublishedIDs: c.store.IDs(),
		Notified:     c.notified,
		LastPolledAt: c.lastPolledAt,
		LastError:    c.lastError,
	}
}

func (c *Controller) snapshot(batch *feed.Batch, page *feed.AppPage) {
	if page != nil {
		c.applyMetadata(MetadataEntry{Name: page.Name, IconURL: page.IconURL, LinkURL: page.URL})
	}

	if c.config.Store == feed.StoreAppStore {
		c.store.Reset()
	}

	entries := c.normalizeBatch(batch)
	for _, entry := range entries {
		if meta, ok := entry.(MetadataEntry); ok {
			c.applyMetadata(meta)
		}
	}
	c.alignStore(entries)

	c.state = StateSteady
	c.logger.Info("Initial reviews recorded", "published", c.store.Len(), "app_name", AppName(c.config, c.info))

	if c.config.Welcome {
		c.dispatch(database.DeliveryKindWelcome, "", FormatWelcome(c.config, c.info))
	}
}

// poll notifies every unseen review in feed order, then realigns the store
// with the fetched page.
func (c *Controller) poll(ctx context.Context, batch *feed.Batch) error {
	entries := c.normalizeBatch(batch)

	type pending struct {
		id  string
		msg *Message
	}
	var unseen []pending
	queued := make(map[string]bool)

	for _, entry := range entries {
		switch entry := entry.(type) {
		case MetadataEntry:
			c.applyMetadata(entry)
		case ReviewEntry:
			r := entry.Review
			if c.store.IsPublished(r.ID) || (r.ID != "" && queued[r.ID]) {
				c.logger.Debug("Review already published", "review_id", r.ID)
				continue
			}
			queued[r.ID] = true
			unseen = append(unseen, pending{id: r.ID, msg: FormatReview(r, c.config, c.info)})
		}
	}

	c.alignStore(entries)

	for _, p := range unseen {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("Publishing review", "review_id", p.id)
		c.dispatch(database.DeliveryKindReview, p.id, p.msg)
		c.notified++
	}

	return nil
}

func (c *Controller) normalizeBatch(batch *feed.Batch) []Entry {
	entries := make([]Entry, 0, len(batch.Items))
	for _, item := range batch.Items {
		entry := c.normalizer.Normalize(item, batch.Metadata.Link)
		if entry == nil {
			c.logger.Debug("Skipping empty feed item")
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// alignStore touches every review on the page oldest first, leaving the
// newest review at the front of the store.
func (c *Controller) alignStore(entries []Entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entry, ok := entries[i].(ReviewEntry); ok {
			c.store.Touch(entry.Review.ID)
		}
	}
}

func (c *Controller) handleItem(ctx context.Context, item *gofeed.Item, feedLink string) {
	switch entry := c.normalizer.Normalize(item, feedLink).(type) {
	case nil:
		c.logger.Debug("Skipping empty feed item")
	case MetadataEntry:
		c.applyMetadata(entry)
	case ReviewEntry:
		r := entry.Review
		if c.store.IsPublished(r.ID) {
			c.logger.Debug("Review already published", "review_id", r.ID)
			return
		}

		c.logger.Debug("Publishing review", "review_id", r.ID, "rating", r.Rating)
		c.dispatch(database.DeliveryKindReview, r.ID, FormatReview(r, c.config, c.info))
		c.notified++
		c.store.MarkPublished(r.ID)
	}
}

func (c *Controller) applyMetadata(entry MetadataEntry) {
	if c.info.Apply(entry, c.overrides()) {
		c.logger.Debug("App info updated", "app_name", c.info.Name, "icon_url", c.info.IconURL, "link_url", c.info.LinkURL)
	}
}

func (c *Controller) lookupPage(ctx context.Context) *feed.AppPage {
	if c.pages == nil {
		return nil
	}

	page, err := c.pages.Lookup(ctx, c.config.AppID, c.config.Region)
	if err != nil {
		c.logger.Warn("Failed to look up app page", "error", err)
		return nil
	}
	return page
}

func (c *Controller) overrides() Overrides {
	return Overrides{
		Name:    c.config.AppName,
		IconURL: c.config.AppIcon,
		LinkURL: c.config.AppLink,
	}
}

func (c *Controller) dispatch(kind database.DeliveryKind, reviewID string, msg *Message) {
	c.dispatcher.Dispatch(notify.Request{
		AppName:    c.config.Name,
		ReviewID:   reviewID,
		Kind:       kind,
		WebhookURL: c.config.WebhookURL,
		Payload:    msg,
	})
}
