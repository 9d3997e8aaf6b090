package feed

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

const (
	maxTitleRunes   = 160
	maxSummaryRunes = 280
	maxSnippetRunes = 500
	maxBodyRunes    = 2000
)

var timestampMetaSelectors = []string{
	"meta[property='article:published_time']",
	"meta[name='date']",
	"meta[name='pubdate']",
	"meta[itemprop='datePublished']",
	"meta[itemprop='dateModified']",
}

// pageTimestamp looks for a published/updated time on a blog or thread page.
func pageTimestamp(doc *goquery.Selection) *time.Time {
	var found *time.Time
	doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = parseTimestamp(s.AttrOr("datetime", ""))
		return found == nil
	})
	if found != nil {
		return found
	}

	for _, selector := range timestampMetaSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if ts := parseTimestamp(content); ts != nil {
				return ts
			}
		}
	}

	return nil
}

func cardTimestamp(container *goquery.Selection) *time.Time {
	if datetime, ok := container.Find("time[datetime]").First().Attr("datetime"); ok {
		return parseTimestamp(datetime)
	}
	return nil
}

// Naive timestamps are read as UTC.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	ts, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

func withinAge(ts *time.Time, now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	if ts == nil {
		return false
	}
	return !ts.Before(now.AddDate(0, 0, -days))
}

func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// selectionText returns the visible text of s with text nodes separated by a
// space, so words in neighbouring elements stay apart.
func selectionText(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	appendText(&b, s)
	return collapseText(b.String())
}

func appendText(b *strings.Builder, s *goquery.Selection) {
	s.Each(func(_ int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "#text":
			b.WriteString(n.Text())
			b.WriteByte(' ')
		case "#comment", "script", "style", "noscript":
		default:
			appendText(b, n.Contents())
		}
	})
}

// truncateRunes cuts s to n runes. The result never ends in whitespace.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}

func labelTitle(label, title string) string {
	if label != "" {
		title = label + " " + title
	}
	return truncateRunes(title, maxTitleRunes)
}

// absoluteURL resolves href against base. Non-http(s) links are rejected.
func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return ItemKey(abs.String())
}

// pageURL returns listing with ?page=n, keeping any other query values.
func pageURL(listing *url.URL, n int) string {
	u := *listing
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}
