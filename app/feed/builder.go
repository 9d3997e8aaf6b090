package feed

import (
	"slices"
	"strings"
	"time"
)

// Builder merges newly qualifying items into the carried-forward entries of
// the previous document.
type Builder struct {
	maxItems int
	now      func() time.Time
}

// NewBuilder creates a builder that keeps at most maxItems entries; zero
// disables the cap.
func NewBuilder(maxItems int) *Builder {
	return &Builder{
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Run returns the new entry list: fresh items first, then existing entries,
// stable-sorted newest first and truncated to maxItems. An existing entry wins
// over a fresh item with the same link.
func (b *Builder) Run(fresh []Item, existing []Entry) []Entry {
	now := b.now().UTC().Truncate(time.Second)

	present := make(map[string]struct{}, len(existing))
	for _, entry := range existing {
		present[entry.Key()] = struct{}{}
	}

	entries := make([]Entry, 0, len(fresh)+len(existing))
	for _, item := range fresh {
		key := item.Key()
		if _, ok := present[key]; ok {
			continue
		}
		present[key] = struct{}{}
		entries = append(entries, b.toEntry(item, now))
	}
	entries = append(entries, existing...)

	slices.SortStableFunc(entries, func(x, y Entry) int {
		return y.Published.Compare(x.Published)
	})

	if b.maxItems > 0 && len(entries) > b.maxItems {
		entries = entries[:b.maxItems]
	}

	return entries
}

func (b *Builder) toEntry(item Item, now time.Time) Entry {
	published := now
	if item.Published != nil {
		published = item.Published.UTC().Truncate(time.Second)
	}

	key := item.Key()
	return Entry{
		Title:       strings.TrimSpace(item.Title),
		Link:        key,
		GUID:        EntryGUID(key),
		Published:   published,
		Description: strings.TrimSpace(item.Summary),
	}
}

// LastBuild picks the channel lastBuildDate so that unchanged input produces
// an unchanged document.
func LastBuild(entries []Entry, previous *time.Time, now time.Time) time.Time {
	if len(entries) > 0 {
		return entries[0].Published
	}
	if previous != nil {
		return *previous
	}
	return now.UTC().Truncate(time.Second)
}
