package feed

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestBuilder(maxItems int) *Builder {
	b := NewBuilder(maxItems)
	b.now = fixedNow
	return b
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestBuilder_Run_FreshFirstSortedDescending(t *testing.T) {
	b := newTestBuilder(50)

	existing := []Entry{
		{Title: "old", Link: "https://itch.io/a", GUID: EntryGUID("https://itch.io/a"), Published: fixedNow().Add(-48 * time.Hour)},
	}
	fresh := []Item{
		{Title: "new", URL: "https://itch.io/b", Published: ptr(fixedNow().Add(-time.Hour))},
	}

	entries := b.Run(fresh, existing)

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Link != "https://itch.io/b" {
		t.Errorf("Expected newest entry first, got %s", entries[0].Link)
	}
	if entries[0].GUID != EntryGUID("https://itch.io/b") {
		t.Errorf("Expected GUID derived from key, got %s", entries[0].GUID)
	}
}

func TestBuilder_Run_ExistingWinsOnDuplicateLink(t *testing.T) {
	b := newTestBuilder(50)

	existing := []Entry{
		{Title: "kept", Link: "https://itch.io/a", Published: fixedNow().Add(-time.Hour)},
	}
	fresh := []Item{
		{Title: "replacement", URL: "https://itch.io/a#comments", Published: ptr(fixedNow())},
	}

	entries := b.Run(fresh, existing)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "kept" {
		t.Errorf("Expected existing entry to win, got %q", entries[0].Title)
	}
}

func TestBuilder_Run_StableOnEqualTimestamps(t *testing.T) {
	b := newTestBuilder(50)
	ts := fixedNow().Add(-time.Hour)

	existing := []Entry{
		{Title: "existing", Link: "https://itch.io/a", Published: ts},
	}
	fresh := []Item{
		{Title: "fresh-1", URL: "https://itch.io/b", Published: ptr(ts)},
		{Title: "fresh-2", URL: "https://itch.io/c", Published: ptr(ts)},
	}

	entries := b.Run(fresh, existing)

	want := []string{"fresh-1", "fresh-2", "existing"}
	for i, title := range want {
		if entries[i].Title != title {
			t.Errorf("Expected entry %d to be %q, got %q", i, title, entries[i].Title)
		}
	}
}

func TestBuilder_Run_CapsToMaxItems(t *testing.T) {
	b := newTestBuilder(2)

	fresh := []Item{
		{Title: "1", URL: "https://itch.io/1", Published: ptr(fixedNow().Add(-1 * time.Hour))},
		{Title: "2", URL: "https://itch.io/2", Published: ptr(fixedNow().Add(-2 * time.Hour))},
		{Title: "3", URL: "https://itch.io/3", Published: ptr(fixedNow().Add(-3 * time.Hour))},
	}

	entries := b.Run(fresh, nil)

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Title != "2" {
		t.Errorf("Expected oldest entry to be trimmed, got %q last", entries[1].Title)
	}
}

func TestBuilder_Run_MissingTimestampUsesNow(t *testing.T) {
	b := newTestBuilder(50)

	entries := b.Run([]Item{{Title: "undated", URL: "https://itch.io/x", Summary: "text"}}, nil)

	if !entries[0].Published.Equal(fixedNow()) {
		t.Errorf("Expected %v, got %v", fixedNow(), entries[0].Published)
	}
	if entries[0].Description != "text" {
		t.Errorf("Expected summary as description, got %q", entries[0].Description)
	}
}

func TestBuilder_Run_TruncatesToSeconds(t *testing.T) {
	b := newTestBuilder(50)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.FixedZone("CEST", 2*3600))

	entries := b.Run([]Item{{Title: "x", URL: "https://itch.io/x", Published: &ts}}, nil)

	want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if !entries[0].Published.Equal(want) || entries[0].Published.Location() != time.UTC {
		t.Errorf("Expected %v, got %v", want, entries[0].Published)
	}
}

func TestLastBuild(t *testing.T) {
	newest := fixedNow().Add(-time.Hour)
	previous := fixedNow().Add(-24 * time.Hour)

	if got := LastBuild([]Entry{{Published: newest}}, &previous, fixedNow()); !got.Equal(newest) {
		t.Errorf("Expected newest entry timestamp, got %v", got)
	}
	if got := LastBuild(nil, &previous, fixedNow()); !got.Equal(previous) {
		t.Errorf("Expected previous lastBuild, got %v", got)
	}
	if got := LastBuild(nil, nil, fixedNow()); !got.Equal(fixedNow()) {
		t.Errorf("Expected now, got %v", got)
	}
}
