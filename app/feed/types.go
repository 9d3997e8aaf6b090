package feed

import (
	"time"
)

// Scraping types

// Item is a candidate extracted from a source page before classification.
type Item struct {
	Title     string
	URL       string
	Published *time.Time
	Summary   string // short snippet, used as the entry description
	Body      string // readable text of the linked page, used only for matching
	Source    string
}

// Key returns the identifier recorded in the seen set.
func (i Item) Key() string {
	return ItemKey(i.URL)
}

// Syndication types

type Entry struct {
	Title       string
	Link        string
	GUID        string
	Published   time.Time
	Description string
}

func (e Entry) Key() string {
	return ItemKey(e.Link)
}

type Channel struct {
	Title       string
	Link        string
	Description string
}

type Document struct {
	Channel   Channel
	LastBuild *time.Time
	Entries   []Entry
}

// Configuration types

type Config struct {
	Feed     ConfigFeed     `yaml:"feed"`
	Keywords ConfigKeywords `yaml:"keywords"`
	Sources  []Source       `yaml:"sources"`
}

type ConfigFeed struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	MaxItems    int    `yaml:"max_items"`
}

type ConfigKeywords struct {
	Charity    []string `yaml:"charity"`
	Submission []string `yaml:"submission"`
}

type Source struct {
	URL   string `yaml:"url"`
	Label string `yaml:"label"`
	Rule  Rule   `yaml:"rule"`
}

type RuleKind string

const (
	RuleAnchors RuleKind = "anchors"
	RuleBoard   RuleKind = "board"
	RuleJams    RuleKind = "jams"
)

type Rule struct {
	Kind          RuleKind `yaml:"kind"`
	Selector      string   `yaml:"selector"`
	LinkPrefix    string   `yaml:"link_prefix"`
	Follow        bool     `yaml:"follow"`
	ThreadPattern string   `yaml:"thread_pattern"`
	MaxAgeDays    int      `yaml:"max_age_days"`
	MaxPages      int      `yaml:"max_pages"`
	MaxItems      int      `yaml:"max_items"`
	MaxTotal      int      `yaml:"max_total"`
}
