package review

// PublishedLimit is the number of review IDs remembered per watched app.
const PublishedLimit = 50

// PublishedStore remembers the most recently published review IDs,
// most recent first. It is not safe for concurrent use; the owning
// Controller serializes access.
type PublishedStore struct {
	ids   []string
	limit int
}

func NewPublishedStore() *PublishedStore {
	return &PublishedStore{
		ids:   make([]string, 0, PublishedLimit),
		limit: PublishedLimit,
	}
}

// IsPublished reports whether id was marked published. Empty IDs are never
// considered published so malformed reviews still get through.
func (s *PublishedStore) IsPublished(id string) bool {
	if id == "" {
		return false
	}
	for _, published := range s.ids {
		if published == id {
			return true
		}
	}
	return false
}

func (s *PublishedStore) MarkPublished(id string) {
	if id == "" || s.IsPublished(id) {
		return
	}

	s.ids = append(s.ids, "")
	copy(s.ids[1:], s.ids)
	s.ids[0] = id

	if len(s.ids) > s.limit {
		s.ids = s.ids[:s.limit]
	}
}

// Touch moves id to the front, inserting it when absent. Walking a feed
// page oldest first with Touch leaves the store in page order, so eviction
// only drops IDs that are no longer on the page.
func (s *PublishedStore) Touch(id string) {
	if id == "" {
		return
	}
	for i, published := range s.ids {
		if published == id {
			copy(s.ids[1:i+1], s.ids[:i])
			s.ids[0] = id
			return
		}
	}
	s.MarkPublished(id)
}

func (s *PublishedStore) Reset() {
	s.ids = s.ids[:0]
}

func (s *PublishedStore) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the tracked IDs, most recent first.
func (s *PublishedStore) IDs() []string {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}
