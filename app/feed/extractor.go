package feed

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	jamStatusHint = regexp.MustCompile(`(?i)\b(Starts in|Submission closes in|Ends in|Closes in)\b`)
	jamEnded      = regexp.MustCompile(`(?i)\bEnded\b`)

	jamTitleSelector = "h1, .jam_title, .header_title"
	jamTextSelectors = []string{
		".jam_summary", ".jam_header", ".jam_body", ".jam_about",
		".formatted_description", ".user_formatted_description", "article",
	}
)

// KnownFunc reports whether a key was already emitted in an earlier run or
// already visited during this one. Known links are not followed.
type KnownFunc func(key string) bool

type Extractor struct {
	fetcher Fetcher
	content *ContentExtractor
	now     func() time.Time
}

// NewExtractor creates an extractor that follows links with fetcher and reads
// linked pages with content.
func NewExtractor(fetcher Fetcher, content *ContentExtractor) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		content: content,
		now:     time.Now,
	}
}

// Run lazily yields the candidate items of one source page. Pages that cannot
// be parsed yield nothing; failures of followed pages are logged and skipped.
func (e *Extractor) Run(ctx context.Context, source Source, page []byte, known KnownFunc) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		if known == nil {
			known = func(string) bool { return false }
		}

		base, err := url.Parse(source.URL)
		if err != nil {
			slog.Warn("Invalid source URL", "source", source.URL, "error", err)
			return
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
		if err != nil {
			slog.Warn("Failed to parse source page", "source", source.URL, "error", err)
			return
		}

		switch source.Rule.Kind {
		case RuleBoard:
			e.board(ctx, source, base, doc, known, yield)
		case RuleJams:
			e.jams(ctx, source, base, doc, known, yield)
		default:
			e.anchors(ctx, source, base, doc, known, yield)
		}
	}
}

func (e *Extractor) anchors(ctx context.Context, source Source, base *url.URL, doc *goquery.Document, known KnownFunc, yield func(Item) bool) {
	rule := source.Rule
	prefix := linkPrefix(rule, base)
	now := e.now()
	listTimestamp := pageTimestamp(doc.Selection)

	visited := make(map[string]struct{})
	emitted := 0

	doc.Find(rule.Selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if ctx.Err() != nil || reachedCap(emitted, rule.MaxItems) {
			return false
		}

		link := absoluteURL(base, a.AttrOr("href", ""))
		text := selectionText(a)
		if link == "" || text == "" || !strings.HasPrefix(link, prefix) {
			return true
		}
		if _, ok := visited[link]; ok {
			return true
		}
		visited[link] = struct{}{}
		if known(link) {
			return true
		}

		container := a.Parent()
		snippet := truncateRunes(selectionText(container), maxSnippetRunes)

		item := Item{
			Title:   labelTitle(source.Label, text),
			URL:     link,
			Summary: truncateRunes(snippet, maxSummaryRunes),
			Body:    snippet,
			Source:  source.Label,
		}

		if rule.Follow {
			linked, err := e.follow(ctx, link)
			if err != nil {
				slog.Warn("Failed to follow link", "source", source.URL, "url", link, "error", err)
			} else {
				item.Published = linked.published
				if linked.text != "" {
					item.Body = linked.text
				}
			}
		} else {
			item.Published = cardTimestamp(container)
			if item.Published == nil {
				item.Published = listTimestamp
			}
		}

		if !withinAge(item.Published, now, rule.MaxAgeDays) {
			slog.Debug("Skipping stale item", "source", source.URL, "url", link)
			return true
		}

		emitted++
		return yield(item)
	})
}

func (e *Extractor) board(ctx context.Context, source Source, base *url.URL, doc *goquery.Document, known KnownFunc, yield func(Item) bool) {
	rule := source.Rule
	threadPattern, err := regexp.Compile(rule.ThreadPattern)
	if err != nil {
		slog.Warn("Invalid thread pattern", "source", source.URL, "error", err)
		return
	}
	now := e.now()

	unique := make(map[string]struct{})
	doc.Find(rule.Selector).Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !threadPattern.MatchString(href) {
			return
		}
		if link := absoluteURL(base, href); link != "" {
			unique[link] = struct{}{}
		}
	})

	threads := make([]string, 0, len(unique))
	for link := range unique {
		threads = append(threads, link)
	}
	sort.Strings(threads)

	emitted := 0
	for _, link := range threads {
		if ctx.Err() != nil || reachedCap(emitted, rule.MaxItems) {
			return
		}
		if known(link) {
			continue
		}

		thread, err := e.follow(ctx, link)
		if err != nil {
			slog.Warn("Failed to fetch thread", "source", source.URL, "url", link, "error", err)
			continue
		}

		title := selectionText(thread.doc.Find("h1").First())
		if title == "" {
			title = thread.title
		}
		if title == "" {
			title = selectionText(thread.doc.Find("title").First())
		}
		if title == "" {
			continue
		}

		if !withinAge(thread.published, now, rule.MaxAgeDays) {
			slog.Debug("Skipping stale thread", "source", source.URL, "url", link)
			continue
		}

		item := Item{
			Title:     labelTitle(source.Label, title),
			URL:       link,
			Published: thread.published,
			Summary:   truncateRunes(thread.text, maxSummaryRunes),
			Body:      thread.text,
			Source:    source.Label,
		}

		emitted++
		if !yield(item) {
			return
		}
	}
}

type jamCard struct {
	link      string
	published *time.Time
}

func (e *Extractor) jams(ctx context.Context, source Source, base *url.URL, doc *goquery.Document, known KnownFunc, yield func(Item) bool) {
	rule := source.Rule
	prefix := linkPrefix(rule, base)
	now := e.now()

	visited := make(map[string]struct{})
	var cards []jamCard

	for page := 1; page <= max(rule.MaxPages, 1); page++ {
		if ctx.Err() != nil || reachedCap(len(cards), rule.MaxTotal) {
			break
		}

		listing := doc
		if page > 1 {
			pageLink := pageURL(base, page)
			data, err := e.fetcher.Fetch(ctx, pageLink)
			if err != nil {
				slog.Warn("Failed to fetch listing page", "source", source.URL, "url", pageLink, "error", err)
				continue
			}
			listing, err = goquery.NewDocumentFromReader(bytes.NewReader(data))
			if err != nil {
				slog.Warn("Failed to parse listing page", "source", source.URL, "url", pageLink, "error", err)
				continue
			}
		}

		found := 0
		listing.Find(rule.Selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			link := absoluteURL(base, a.AttrOr("href", ""))
			if link == "" || !strings.HasPrefix(link, prefix) {
				return true
			}
			if _, ok := visited[link]; ok || known(link) {
				return true
			}

			container := a
			for i := 0; i < 3; i++ {
				if parent := container.Parent(); parent.Length() > 0 {
					container = parent
				}
			}

			blob := selectionText(container)
			if jamEnded.MatchString(blob) || !jamStatusHint.MatchString(blob) {
				return true
			}

			published := cardTimestamp(container)
			if published != nil && !published.After(now) {
				return true
			}

			visited[link] = struct{}{}
			cards = append(cards, jamCard{link: link, published: published})
			found++

			return !reachedCap(found, rule.MaxItems) && !reachedCap(len(cards), rule.MaxTotal)
		})

		if found == 0 && page > 1 {
			break
		}
	}

	for _, card := range cards {
		if ctx.Err() != nil {
			return
		}

		jam, err := e.follow(ctx, card.link)
		if err != nil {
			slog.Warn("Failed to fetch jam page", "source", source.URL, "url", card.link, "error", err)
			continue
		}

		title := selectionText(jam.doc.Find(jamTitleSelector).First())
		if title == "" {
			title = "Jam"
		}

		body := jamText(jam)

		published := card.published
		if published == nil {
			ts := now
			published = &ts
		}

		if !withinAge(published, now, rule.MaxAgeDays) {
			continue
		}

		item := Item{
			Title:     labelTitle(source.Label, title),
			URL:       card.link,
			Published: published,
			Summary:   truncateRunes(body, maxSummaryRunes),
			Body:      body,
			Source:    source.Label,
		}

		if !yield(item) {
			return
		}
	}
}

type linkedPage struct {
	doc       *goquery.Document
	published *time.Time
	title     string
	text      string
}

func (e *Extractor) follow(ctx context.Context, link string) (*linkedPage, error) {
	pageLink, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid link: %w", err)
	}

	data, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	linked := &linkedPage{
		doc:       doc,
		published: pageTimestamp(doc.Selection),
	}

	content, err := e.content.Run(data, pageLink)
	if err != nil {
		slog.Debug("No readable content", "url", link, "error", err)
	} else {
		linked.title = content.Title
		linked.text = content.Text
	}

	return linked, nil
}

// jamText collects the description blocks of a jam page, falling back to the
// readable text and then to the whole body.
func jamText(jam *linkedPage) string {
	chunks := make([]string, 0, len(jamTextSelectors))
	for _, selector := range jamTextSelectors {
		jam.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := selectionText(s); text != "" {
				chunks = append(chunks, text)
			}
		})
	}

	text := strings.Join(chunks, " ")
	if text == "" {
		text = jam.text
	}
	if text == "" {
		text = selectionText(jam.doc.Find("body"))
	}

	return truncateRunes(text, maxBodyRunes)
}

func linkPrefix(rule Rule, base *url.URL) string {
	if rule.LinkPrefix != "" {
		return rule.LinkPrefix
	}
	return base.Scheme + "://" + base.Host + "/"
}

func reachedCap(n, limit int) bool {
	return limit > 0 && n >= limit
}
