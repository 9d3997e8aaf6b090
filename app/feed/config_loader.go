package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxItems       = 50
	DefaultSourceMaxItems = 60
	DefaultMaxPages       = 5
	DefaultMaxTotal       = 400
)

type ConfigLoader struct {
	path string
}

func NewConfigLoader(path string) *ConfigLoader {
	return &ConfigLoader{path: path}
}

func (l *ConfigLoader) Run() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config, err := l.parseConfig(data)
	if err != nil {
		return nil, err
	}

	if err := l.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	slog.Debug("Configuration loaded",
		"path", l.path,
		"sources", len(config.Sources),
		"charity_patterns", len(config.Keywords.Charity),
		"submission_patterns", len(config.Keywords.Submission),
		"max_items", config.Feed.MaxItems)

	return config, nil
}

func (l *ConfigLoader) parseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Feed.MaxItems == 0 {
		config.Feed.MaxItems = DefaultMaxItems
	}

	for i := range config.Sources {
		rule := &config.Sources[i].Rule
		if rule.Kind == "" {
			rule.Kind = RuleAnchors
		}
		if rule.MaxItems == 0 {
			rule.MaxItems = DefaultSourceMaxItems
		}
		if rule.Kind == RuleJams {
			if rule.Selector == "" {
				rule.Selector = "a[href*='/jam/']"
			}
			if rule.MaxPages == 0 {
				rule.MaxPages = DefaultMaxPages
			}
			if rule.MaxTotal == 0 {
				rule.MaxTotal = DefaultMaxTotal
			}
		}
		if rule.Selector == "" {
			rule.Selector = "a"
		}
	}

	return &config, nil
}

func (l *ConfigLoader) validateConfig(config *Config) error {
	if config.Feed.Title == "" {
		return fmt.Errorf("feed title is required")
	}
	if config.Feed.Link == "" {
		return fmt.Errorf("feed link is required")
	}
	if config.Feed.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	if _, err := NewClassifier(config.Keywords); err != nil {
		return err
	}

	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	validKinds := map[RuleKind]bool{
		RuleAnchors: true,
		RuleBoard:   true,
		RuleJams:    true,
	}

	for i, source := range config.Sources {
		u, err := url.Parse(source.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("source at index %d has an invalid URL: %q", i, source.URL)
		}

		rule := source.Rule
		if !validKinds[rule.Kind] {
			return fmt.Errorf("invalid rule kind at index %d: %s", i, rule.Kind)
		}

		nonNegativeFields := map[string]int{
			"max age days": rule.MaxAgeDays,
			"max pages":    rule.MaxPages,
			"max items":    rule.MaxItems,
			"max total":    rule.MaxTotal,
		}
		for fieldName, fieldValue := range nonNegativeFields {
			if fieldValue < 0 {
				return fmt.Errorf("source at index %d: %s must be non-negative", i, fieldName)
			}
		}

		if rule.Kind == RuleBoard {
			if rule.ThreadPattern == "" {
				return fmt.Errorf("source at index %d: board rule requires thread_pattern", i)
			}
			if _, err := regexp.Compile(rule.ThreadPattern); err != nil {
				return fmt.Errorf("source at index %d: invalid thread_pattern: %w", i, err)
			}
		}
	}

	return nil
}
