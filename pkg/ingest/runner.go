// Package ingest drives one source's ingestion run: fetch items newer
// than the checkpoint, classify, embed, persist, then advance the
// checkpoint.
package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mfonda/simhash"
	"github.com/mkravets/telescan/internal/store"
	"github.com/mkravets/telescan/pkg/classify"
	"github.com/mkravets/telescan/pkg/embed"
	"github.com/mkravets/telescan/pkg/source"
	"golang.org/x/sync/singleflight"
)

const (
	// titleMaxRunes caps the derived document title.
	titleMaxRunes = 200
	// embedTextRunes caps the text prefix fed to the embedder.
	embedTextRunes = 512
)

// Config holds Runner tunables. Zero values get defaults.
type Config struct {
	BatchLimit   int           // max items fetched per run (default 100)
	FetchTimeout time.Duration // per-call origin timeout (default 30s)
	EmbedTimeout time.Duration // per-call embedding timeout (default 30s)
	Logger       *slog.Logger
}

// Runner orchestrates ingestion runs. It holds no per-source state
// between runs beyond what the checkpoint table persists.
type Runner struct {
	store        store.Store
	embedder     embed.Embedder
	fetchers     map[source.Kind]source.Fetcher
	batchLimit   int
	fetchTimeout time.Duration
	embedTimeout time.Duration
	group        singleflight.Group
	logger       *slog.Logger
}

// New creates a Runner over the given store, embedder, and adapters.
func New(st store.Store, embedder embed.Embedder, fetchers []source.Fetcher, cfg Config) (*Runner, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if len(fetchers) == 0 {
		return nil, fmt.Errorf("at least one source adapter required")
	}

	byKind := make(map[source.Kind]source.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byKind[f.Kind()] = f
	}

	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Runner{
		store:        st,
		embedder:     embedder,
		fetchers:     byKind,
		batchLimit:   cfg.BatchLimit,
		fetchTimeout: cfg.FetchTimeout,
		embedTimeout: cfg.EmbedTimeout,
		logger:       cfg.Logger.With("component", "ingest"),
	}, nil
}

// Run executes one ingestion run for a source. Concurrent calls for the
// same source coalesce into a single run; callers share its report.
// The returned error wraps one of the package failure kinds. On batch
// abort the partial report is returned alongside the error.
func (r *Runner) Run(ctx context.Context, sourceID string) (*RunReport, error) {
	v, err, _ := r.group.Do(sourceID, func() (any, error) {
		return r.run(ctx, sourceID)
	})
	report, _ := v.(*RunReport)
	return report, err
}

// RunAllActive runs every active source that has a registered adapter.
// A failed source is logged and does not stop the sweep.
func (r *Runner) RunAllActive(ctx context.Context) {
	sources, err := r.store.ListActiveSources(ctx)
	if err != nil {
		r.logger.Error("list active sources", "err", err)
		return
	}

	for _, src := range sources {
		if _, ok := r.fetchers[src.Kind]; !ok {
			r.logger.Warn("no adapter for source kind", "source", src.ID, "kind", src.Kind)
			continue
		}

		report, err := r.Run(ctx, src.ID)
		if err != nil {
			r.logger.Error("run failed", "source", src.ID, "err", err)
			continue
		}
		r.logger.Info("run complete", "source", src.ID,
			"fetched", report.Fetched, "inserted", report.Inserted, "skipped", report.Skipped)
	}
}

func (r *Runner) run(ctx context.Context, sourceID string) (*RunReport, error) {
	src, err := r.store.GetSource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	fetcher, ok := r.fetchers[src.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for kind %q", ErrSourceNotFound, src.Kind)
	}

	after, _, err := r.store.Checkpoint(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	items, err := fetcher.Fetch(fetchCtx, src.Address, after, r.batchLimit)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrigin, err)
	}

	report := &RunReport{SourceID: src.ID, Fetched: len(items)}
	if len(items) == 0 {
		r.logger.Debug("nothing to ingest", "source", src.ID, "after", after)
		return report, nil
	}

	// Origins deliver most-recent-first. Process oldest-first so the
	// checkpoint never advances past an unprocessed older item.
	slices.SortFunc(items, func(a, b source.Item) int {
		return cmp.Compare(a.ID, b.ID)
	})
	maxID := items[len(items)-1].ID

	for _, item := range items {
		outcome, err := r.processItem(ctx, src.ID, item)
		report.record(item.ID, outcome, err)
		if err != nil {
			// Fail fast: abort the batch, leave the checkpoint alone.
			return report, err
		}
	}

	// The checkpoint covers the whole fetched set, duplicates included,
	// so already-seen items are not re-fetched next run.
	if err := r.store.AdvanceCheckpoint(ctx, src.ID, maxID); err != nil {
		return report, fmt.Errorf("%w: %w", ErrStore, err)
	}
	report.Checkpoint = maxID

	r.logger.Info("batch committed", "source", src.ID,
		"inserted", report.Inserted, "skipped", report.Skipped, "checkpoint", maxID)
	return report, nil
}

func (r *Runner) processItem(ctx context.Context, sourceID string, item source.Item) (Outcome, error) {
	exists, err := r.store.DocumentExists(ctx, sourceID, item.Text)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if exists {
		return OutcomeSkipped, nil
	}

	title := titleOf(item.Text)

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vector, err := r.embedder.EmbedText(embedCtx, title+" "+truncateRunes(item.Text, embedTextRunes))
	cancel()
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	doc := &store.Document{
		SourceID:    sourceID,
		Category:    classify.Classify(item.Text),
		Title:       title,
		Text:        item.Text,
		PublishedAt: item.OccurredAt.UTC(),
		Embedding:   vector,
		Fingerprint: fingerprint(item.Text),
	}
	if err := r.store.InsertDocument(ctx, doc); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return OutcomeInserted, nil
}

// titleOf derives a document title: the first non-empty line, capped.
func titleOf(text string) string {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "Untitled"
	}
	return truncateRunes(line, titleMaxRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// fingerprint computes the near-duplicate simhash of a text. It is
// persisted with the document but not consulted for filtering.
func fingerprint(text string) string {
	return strconv.FormatUint(simhash.Simhash(simhash.NewWordFeatureSet([]byte(text))), 10)
}
