package review

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/lysyi3m/review-hook/app/feed"
)

func loadAppStoreFixture(t *testing.T) *feed.Batch {
	t.Helper()

	data, err := os.ReadFile("testdata/app_store_reviews.xml")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	batch, err := feed.NewParser().Run(data)
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return batch
}

func TestNormalizeAppStoreFeed(t *testing.T) {
	batch := loadAppStoreFixture(t)
	if len(batch.Items) != 3 {
		t.Fatalf("Expected 3 items, got: %d", len(batch.Items))
	}

	n := NewNormalizer(feed.StoreAppStore)

	meta, ok := n.Normalize(batch.Items[0], batch.Metadata.Link).(MetadataEntry)
	if !ok {
		t.Fatalf("Expected first entry to be metadata, got: %T", n.Normalize(batch.Items[0], batch.Metadata.Link))
	}
	wantMeta := MetadataEntry{
		Name:    "Sample App",
		IconURL: "https://is1-ssl.mzstatic.com/image/53x53.png",
		LinkURL: "https://apps.apple.com/ng/app/sample-app/id284882215?uo=2",
	}
	if diff := cmp.Diff(wantMeta, meta); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}

	entry, ok := n.Normalize(batch.Items[1], batch.Metadata.Link).(ReviewEntry)
	if !ok {
		t.Fatal("Expected second entry to be a review")
	}
	want := Review{
		ID:        "10512345678",
		Title:     "Great app",
		Text:      "Works well on my phone",
		Rating:    4,
		Date:      "2024-03-01 17:15",
		Author:    "Alice",
		Link:      "https://apps.apple.com/ng/app/id284882215",
		StoreName: "App Store",
	}
	if diff := cmp.Diff(want, entry.Review); diff != "" {
		t.Errorf("Review mismatch (-want +got):\n%s", diff)
	}

	entry, ok = n.Normalize(batch.Items[2], batch.Metadata.Link).(ReviewEntry)
	if !ok {
		t.Fatal("Expected third entry to be a review")
	}
	if entry.Review.Rating != UnknownRating {
		t.Errorf("Expected unknown rating for non numeric value, got: %d", entry.Review.Rating)
	}
	if entry.Review.Author != "Bob" {
		t.Errorf("Expected author 'Bob', got: %s", entry.Review.Author)
	}
}

func TestNormalizeNilItem(t *testing.T) {
	for _, store := range []feed.Store{feed.StoreAppStore, feed.StoreGooglePlay} {
		if entry := NewNormalizer(store).Normalize(nil, ""); entry != nil {
			t.Errorf("Expected nil entry for %s, got: %v", store, entry)
		}
	}
}

func TestNormalizeAppStoreMissingFields(t *testing.T) {
	item := &gofeed.Item{GUID: "1"}

	entry, ok := NewNormalizer(feed.StoreAppStore).Normalize(item, "https://example.com/app").(ReviewEntry)
	if !ok {
		t.Fatal("Expected review entry")
	}
	if entry.Review.Rating != UnknownRating {
		t.Errorf("Expected unknown rating, got: %d", entry.Review.Rating)
	}
	if entry.Review.Date != "" {
		t.Errorf("Expected empty date, got: %s", entry.Review.Date)
	}
	if entry.Review.Link != "https://example.com/app" {
		t.Errorf("Expected feed link fallback, got: %s", entry.Review.Link)
	}
}

func TestNormalizeAppStoreDateFallsBackToPublished(t *testing.T) {
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	item := &gofeed.Item{GUID: "1", PublishedParsed: &published}

	entry := NewNormalizer(feed.StoreAppStore).Normalize(item, "").(ReviewEntry)
	if entry.Review.Date != "2024-01-02 03:04" {
		t.Errorf("Expected published date, got: %s", entry.Review.Date)
	}
}

func TestNormalizeGooglePlay(t *testing.T) {
	updated := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := NewNormalizer(feed.StoreGooglePlay)

	tests := []struct {
		name       string
		item       *gofeed.Item
		wantID     string
		wantRating int
	}{
		{
			name:       "rating from title",
			item:       &gofeed.Item{GUID: "gp-1", Title: "5 stars, love it", UpdatedParsed: &updated},
			wantID:     "gp-1",
			wantRating: 5,
		},
		{
			name:       "non digit title",
			item:       &gofeed.Item{GUID: "gp-2", Title: "Love it"},
			wantID:     "gp-2",
			wantRating: UnknownRating,
		},
		{
			name:       "out of range digit",
			item:       &gofeed.Item{GUID: "gp-3", Title: "9/10"},
			wantID:     "gp-3",
			wantRating: UnknownRating,
		},
		{
			name:       "link as id",
			item:       &gofeed.Item{Link: "https://play.google.com/review/4", Title: "3"},
			wantID:     "https://play.google.com/review/4",
			wantRating: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := n.Normalize(tt.item, "").(ReviewEntry)
			if !ok {
				t.Fatal("Expected Google Play items to always be reviews")
			}
			if entry.Review.ID != tt.wantID {
				t.Errorf("Expected ID %s, got: %s", tt.wantID, entry.Review.ID)
			}
			if entry.Review.Rating != tt.wantRating {
				t.Errorf("Expected rating %d, got: %d", tt.wantRating, entry.Review.Rating)
			}
			if entry.Review.Date != "" {
				t.Errorf("Expected no date, got: %s", entry.Review.Date)
			}
			if entry.Review.StoreName != "Google Play" {
				t.Errorf("Expected Google Play store name, got: %s", entry.Review.StoreName)
			}
		})
	}
}

func TestNormalizeGooglePlayIgnoresMetadataShape(t *testing.T) {
	item := &gofeed.Item{
		GUID:  "gp-1",
		Title: "4",
		Extensions: ext.Extensions{
			"im": {"name": {{Name: "name", Value: "Sample App"}}},
		},
	}

	if _, ok := NewNormalizer(feed.StoreGooglePlay).Normalize(item, "").(ReviewEntry); !ok {
		t.Error("Expected Google Play item to be a review regardless of extensions")
	}
}

func TestParseRating(t *testing.T) {
	tests := map[string]int{
		"":    UnknownRating,
		"0":   0,
		"3":   3,
		" 5 ": 5,
		"4.0": 4,
		"6":   UnknownRating,
		"-2":  UnknownRating,
		"abc": UnknownRating,
	}

	for input, want := range tests {
		if got := parseRating(input); got != want {
			t.Errorf("parseRating(%q): expected %d, got: %d", input, want, got)
		}
	}
}
