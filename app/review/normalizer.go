package review

import (
	"cmp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/lysyi3m/review-hook/app/feed"
)

const dateLayout = "2006-01-02 15:04"

// Normalizer turns raw feed items of one store into entries.
type Normalizer struct {
	store feed.Store
}

func NewNormalizer(store feed.Store) *Normalizer {
	return &Normalizer{store: store}
}

// Normalize classifies item. feedLink is used when an item carries no link
// of its own. A nil item yields a nil Entry.
func (n *Normalizer) Normalize(item *gofeed.Item, feedLink string) Entry {
	if item == nil {
		return nil
	}

	switch n.store {
	case feed.StoreGooglePlay:
		return ReviewEntry{Review: n.googlePlayReview(item, feedLink)}
	default:
		if isAppStoreMetadata(item) {
			return appStoreMetadata(item, feedLink)
		}
		return ReviewEntry{Review: n.appStoreReview(item, feedLink)}
	}
}

func (n *Normalizer) appStoreReview(item *gofeed.Item, feedLink string) Review {
	return Review{
		ID:        item.GUID,
		Title:     item.Title,
		Text:      cmp.Or(item.Description, item.Content),
		Rating:    parseRating(extensionValue(item.Extensions, "im", "rating")),
		Date:      formatDate(cmp.Or(item.UpdatedParsed, item.PublishedParsed)),
		Author:    authorName(item),
		Link:      cmp.Or(item.Link, feedLink),
		StoreName: feed.StoreAppStore.Label(),
	}
}

// Google Play feeds put the star count first in the title and carry
// unreliable dates, so the date is always left out.
func (n *Normalizer) googlePlayReview(item *gofeed.Item, feedLink string) Review {
	rating := UnknownRating
	if first, _ := utf8.DecodeRuneInString(item.Title); first >= '0' && first <= '9' {
		rating = parseRating(string(first))
	}

	return Review{
		ID:        cmp.Or(item.GUID, item.Link),
		Title:     item.Title,
		Text:      cmp.Or(item.Description, item.Content),
		Rating:    rating,
		Author:    authorName(item),
		Link:      cmp.Or(item.Link, feedLink),
		StoreName: feed.StoreGooglePlay.Label(),
	}
}

// The App Store feed interleaves an entry describing the app itself,
// recognizable by its im:name element.
func isAppStoreMetadata(item *gofeed.Item) bool {
	_, ok := extension(item.Extensions, "im", "name")
	return ok
}

func appStoreMetadata(item *gofeed.Item, feedLink string) MetadataEntry {
	return MetadataEntry{
		Name:    extensionValue(item.Extensions, "im", "name"),
		IconURL: extensionValue(item.Extensions, "im", "image"),
		LinkURL: cmp.Or(item.Link, feedLink),
	}
}

func extension(extensions ext.Extensions, prefix, name string) (ext.Extension, bool) {
	if extensions == nil {
		return ext.Extension{}, false
	}
	values := extensions[prefix][name]
	if len(values) == 0 {
		return ext.Extension{}, false
	}
	return values[0], true
}

func extensionValue(extensions ext.Extensions, prefix, name string) string {
	e, _ := extension(extensions, prefix, name)
	return strings.TrimSpace(e.Value)
}

func parseRating(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return UnknownRating
	}

	rating, err := strconv.Atoi(value)
	if err != nil {
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil {
			return UnknownRating
		}
		rating = int(f)
	}

	if rating < 0 || rating > 5 {
		return UnknownRating
	}
	return rating
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	return ""
}
