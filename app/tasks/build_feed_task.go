package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/charity-comb/app/database"
	"github.com/lysyi3m/charity-comb/app/feed"
)

// BuildFeedTask runs the whole pipeline once: fetch every source, extract and
// classify candidate items, drop the ones already seen, merge the rest into
// the previous document and persist both the document and the SeenSet.
type BuildFeedTask struct {
	Task
	config     *feed.Config
	fetcher    feed.Fetcher
	extractor  *feed.Extractor
	classifier *feed.Classifier
	parser     *feed.Parser
	builder    *feed.Builder
	generator  *feed.Generator
	seenRepo   database.SeenRepository
	feedPath   string
	now        func() time.Time

	result *Result
}

// NewBuildFeedTask creates a build task. The builder is sized from the feed's
// max_items setting.
func NewBuildFeedTask(trigger string, config *feed.Config, fetcher feed.Fetcher, extractor *feed.Extractor,
	classifier *feed.Classifier, seenRepo database.SeenRepository, feedPath string) *BuildFeedTask {
	return &BuildFeedTask{
		Task:       NewTask(TaskTypeBuildFeed, trigger),
		config:     config,
		fetcher:    fetcher,
		extractor:  extractor,
		classifier: classifier,
		parser:     feed.NewParser(),
		builder:    feed.NewBuilder(config.Feed.MaxItems),
		generator:  feed.NewGenerator(),
		seenRepo:   seenRepo,
		feedPath:   feedPath,
		now:        time.Now,
	}
}

func (t *BuildFeedTask) Result() *Result {
	return t.result
}

// Execute runs the pipeline. Source failures are logged and skipped; failing
// to write the document or to save the seen set is returned as an error.
func (t *BuildFeedTask) Execute(ctx context.Context) error {
	if t.StartedAt == nil {
		t.Start()
	}

	result := &Result{
		StartedAt: t.now().UTC(),
		Sources:   len(t.config.Sources),
	}
	t.result = result

	seen, err := t.seenRepo.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load seen set, starting empty", "backend", t.seenRepo.Backend(), "error", err)
		seen = database.NewSeenSet()
	}

	previous, err := t.parser.Load(t.feedPath)
	if err != nil {
		slog.Warn("Failed to load previous feed, starting empty", "path", t.feedPath, "error", err)
		previous = &feed.Document{}
	}

	// Entries already published are seen even if the state was lost.
	for _, entry := range previous.Entries {
		seen.MarkSeen(entry.Key())
	}

	visited := make(map[string]struct{})
	known := func(key string) bool {
		if _, ok := visited[key]; ok {
			return true
		}
		if seen.Contains(key) {
			result.Duplicates++
			return true
		}
		return false
	}

	var fresh []feed.Item
	for _, source := range t.config.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		items, err := t.processSource(ctx, source, known, visited, result)
		if err != nil {
			result.FailedSources++
			slog.Warn("Source failed, skipping", "source", source.URL, "error", err)
			continue
		}
		fresh = append(fresh, items...)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	entries := t.builder.Run(fresh, previous.Entries)
	result.New = countNew(fresh, entries, previous.Entries)
	result.Written = len(entries)

	doc := feed.Document{
		Channel: feed.Channel{
			Title:       t.config.Feed.Title,
			Link:        t.config.Feed.Link,
			Description: t.config.Feed.Description,
		},
		Entries: entries,
	}
	lastBuild := feed.LastBuild(entries, previous.LastBuild, t.now())
	doc.LastBuild = &lastBuild

	if err := t.generator.WriteFile(t.feedPath, doc); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}

	for _, item := range fresh {
		seen.MarkSeen(item.Key())
	}
	result.Seen = seen.Len()

	if err := t.seenRepo.Save(ctx, seen); err != nil {
		return fmt.Errorf("failed to save seen set: %w", err)
	}

	result.Duration = t.GetDuration()

	slog.Info("Task completed",
		"type", string(t.Type),
		"trigger", t.Trigger,
		"duration", result.Duration,
		"sources", result.Sources,
		"failed_sources", result.FailedSources,
		"extracted", result.Extracted,
		"qualified", result.Qualified,
		"duplicates", result.Duplicates,
		"new", result.New,
		"written", result.Written)

	return nil
}

func (t *BuildFeedTask) processSource(ctx context.Context, source feed.Source, known feed.KnownFunc,
	visited map[string]struct{}, result *Result) ([]feed.Item, error) {
	data, err := t.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}

	var qualified []feed.Item
	extracted := 0
	for item := range t.extractor.Run(ctx, source, data, known) {
		extracted++

		key := item.Key()
		if known(key) {
			continue
		}
		visited[key] = struct{}{}

		if !t.classifier.Matches(item) {
			slog.Debug("Item did not qualify", "source", source.URL, "url", key)
			continue
		}

		qualified = append(qualified, item)
	}

	result.Extracted += extracted
	result.Qualified += len(qualified)

	slog.Debug("Source processed",
		"source", source.URL,
		"extracted", extracted,
		"qualified", len(qualified))

	return qualified, nil
}

// countNew returns how many fresh items made it into the written entries.
func countNew(fresh []feed.Item, entries, existing []feed.Entry) int {
	old := make(map[string]struct{}, len(existing))
	for _, entry := range existing {
		old[entry.Key()] = struct{}{}
	}

	kept := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		kept[entry.Key()] = struct{}{}
	}

	n := 0
	for _, item := range fresh {
		key := item.Key()
		if _, ok := old[key]; ok {
			continue
		}
		if _, ok := kept[key]; ok {
			n++
		}
	}
	return n
}
