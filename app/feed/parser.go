package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS or Atom document. Items are returned untouched so the
// store specific extensions (im:rating, im:name) stay available.
func (p *Parser) Run(data []byte) (*Batch, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	batch := &Batch{
		Metadata: Metadata{
			Title: parsed.Title,
			Link:  parsed.Link,
		},
		Items: make([]*gofeed.Item, 0, len(parsed.Items)),
	}

	if parsed.Image != nil {
		batch.Metadata.ImageURL = parsed.Image.URL
	}

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		batch.Items = append(batch.Items, item)
	}

	return batch, nil
}
