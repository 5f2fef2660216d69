package review

// UnknownRating marks a review whose rating could not be read.
const UnknownRating = -1

// Review is a store agnostic review record.
type Review struct {
	ID        string
	Title     string
	Text      string
	Rating    int    // UnknownRating or 0..5
	Date      string // "YYYY-MM-DD HH:MM" UTC, empty when unknown
	Author    string
	Link      string
	StoreName string
}

// AppInfo accumulates app details discovered while watching a feed.
type AppInfo struct {
	Name    string `json:"name,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
	LinkURL string `json:"link_url,omitempty"`
}

// Entry is either a ReviewEntry or a MetadataEntry.
type Entry interface {
	isEntry()
}

type ReviewEntry struct {
	Review Review
}

// MetadataEntry carries app details interleaved in a feed.
type MetadataEntry struct {
	Name    string
	IconURL string
	LinkURL string
}

func (ReviewEntry) isEntry()   {}
func (MetadataEntry) isEntry() {}

// Overrides are display values supplied by configuration. A non-empty
// override always wins over discovered metadata.
type Overrides struct {
	Name    string
	IconURL string
	LinkURL string
}

// Apply records each field of meta the first time it is seen, unless the
// configuration overrides it. It reports whether anything changed.
func (a *AppInfo) Apply(meta MetadataEntry, overrides Overrides) bool {
	changed := false

	if overrides.Name == "" && a.Name == "" && meta.Name != "" {
		a.Name = meta.Name
		changed = true
	}
	if overrides.IconURL == "" && a.IconURL == "" && meta.IconURL != "" {
		a.IconURL = meta.IconURL
		changed = true
	}
	if overrides.LinkURL == "" && a.LinkURL == "" && meta.LinkURL != "" {
		a.LinkURL = meta.LinkURL
		changed = true
	}

	return changed
}
