package feed

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PatternSet is a list of case-insensitive regular expressions. Plain words
// behave as substring matches.
type PatternSet struct {
	name     string
	patterns []*regexp.Regexp
}

func NewPatternSet(name string, patterns []string) (*PatternSet, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%s keyword set is empty", name)
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("%s pattern at index %d is empty", name, i)
		}
		re, err := regexp.Compile("(?i)" + norm.NFKC.String(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern at index %d: %w", name, i, err)
		}
		compiled = append(compiled, re)
	}

	return &PatternSet{name: name, patterns: compiled}, nil
}

func (p *PatternSet) MatchesAny(text string) bool {
	for _, re := range p.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (p *PatternSet) Len() int {
	return len(p.patterns)
}

// Classifier accepts an item only when both the charity and the submission
// sets match its combined text.
type Classifier struct {
	charity    *PatternSet
	submission *PatternSet
}

func NewClassifier(keywords ConfigKeywords) (*Classifier, error) {
	charity, err := NewPatternSet("charity", keywords.Charity)
	if err != nil {
		return nil, err
	}

	submission, err := NewPatternSet("submission", keywords.Submission)
	if err != nil {
		return nil, err
	}

	return &Classifier{charity: charity, submission: submission}, nil
}

func (c *Classifier) Matches(item Item) bool {
	text := c.combinedText(item)
	return c.charity.MatchesAny(text) && c.submission.MatchesAny(text)
}

func (c *Classifier) MatchesText(text string) bool {
	text = norm.NFKC.String(text)
	return c.charity.MatchesAny(text) && c.submission.MatchesAny(text)
}

// Without a body only the title and list snippet are matched, which misses
// posts whose title does not mention both categories.
func (c *Classifier) combinedText(item Item) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{item.Title, item.Summary, item.Body} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return norm.NFKC.String(strings.Join(parts, " \n "))
}
