package feed

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
)

// Parser reads back the previously written document so its entries can be
// carried forward into the next one.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Load returns an empty document when path does not exist yet.
func (p *Parser) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feed document: %w", err)
	}

	return p.Run(data)
}

func (p *Parser) Run(data []byte) (*Document, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	doc := &Document{
		Channel: Channel{
			Title:       parsed.Title,
			Link:        parsed.Link,
			Description: parsed.Description,
		},
	}

	if parsed.UpdatedParsed != nil {
		lastBuild := parsed.UpdatedParsed.UTC()
		doc.LastBuild = &lastBuild
	}

	doc.Entries = make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		doc.Entries = append(doc.Entries, p.normalizeItem(item, doc.LastBuild))
	}

	return doc, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, lastBuild *time.Time) Entry {
	link := ItemKey(item.Link)
	entry := Entry{
		Title:       item.Title,
		Link:        link,
		GUID:        cmp.Or(item.GUID, EntryGUID(link)),
		Description: item.Description,
	}

	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed.UTC()
	case lastBuild != nil:
		entry.Published = *lastBuild
	}

	return entry
}
