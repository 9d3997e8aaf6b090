package feed

import (
	"cmp"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/gorilla/feeds"
)

// Generator renders a Document as RSS 2.0.
type Generator struct{}

// NewGenerator creates a new RSS generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Run serializes the document as RSS 2.0. Entries are written in the given
// order; the caller is responsible for sorting and capping them.
func (g *Generator) Run(doc Document) (string, error) {
	channel := &feeds.Feed{
		Title:       doc.Channel.Title,
		Link:        &feeds.Link{Href: doc.Channel.Link},
		Description: doc.Channel.Description,
		Items:       make([]*feeds.Item, 0, len(doc.Entries)),
	}

	if doc.LastBuild != nil {
		channel.Updated = doc.LastBuild.UTC()
	}

	for _, entry := range doc.Entries {
		channel.Items = append(channel.Items, &feeds.Item{
			Title:       entry.Title,
			Link:        &feeds.Link{Href: entry.Link},
			Id:          cmp.Or(entry.GUID, EntryGUID(entry.Key())),
			IsPermaLink: "false",
			Description: cmp.Or(entry.Description, entry.Title),
			Created:     entry.Published.UTC(),
		})
	}

	rss, err := channel.ToRss()
	if err != nil {
		return "", fmt.Errorf("failed to generate RSS: %w", err)
	}

	return rss, nil
}

// WriteFile replaces path atomically: the document is written to a temporary
// file in the same directory and renamed over the old one.
func (g *Generator) WriteFile(path string, doc Document) error {
	rss, err := g.Run(doc)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(path, []byte(rss), 0o644); err != nil {
		return fmt.Errorf("failed to write feed document: %w", err)
	}

	return nil
}
