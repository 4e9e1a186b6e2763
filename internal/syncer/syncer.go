package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/dryrun"
	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/external/tmdb"
	"github.com/glefebvre/mediacatalog/internal/filter"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/metrics"
	"github.com/glefebvre/mediacatalog/internal/models"
	"github.com/sourcegraph/conc/pool"
)

// Item outcomes as reported in metrics
const (
	outcomeUpserted = "upserted"
	outcomeFailed   = "failed"
	outcomeFiltered = "filtered"
	outcomeSkipped  = "skipped"
	outcomeAudited  = "audited"
)

// Fetcher is the slice of the metadata client the sync job needs
type Fetcher interface {
	TrendingAll(ctx context.Context, kind models.Kind, window models.Window) (*tmdb.Listing, error)
	FetchMovie(ctx context.Context, id int64) *models.Movie
	FetchSeries(ctx context.Context, id int64) *models.Series
}

// Options holds configuration for one sync run
type Options struct {
	Kind   models.Kind
	Window models.Window
	// Limit caps the number of listed items processed; 0 processes all
	Limit  int
	DryRun bool
	// Concurrency bounds parallel detail fetches; values below 1 run sequentially
	Concurrency int
}

// Statistics holds sync run statistics
type Statistics struct {
	RunID    uint
	Pages    int
	Listed   int
	Upserted int
	Skipped  int
	Failed   int
	Filtered int
	Duration time.Duration
	Audit    *dryrun.Result
}

// Syncer mirrors a trending listing into the catalog store and the trending index
type Syncer struct {
	client Fetcher
	store  *catalog.Store
	filter *filter.Manager
	logger *logger.Logger
	now    func() time.Time
}

// New creates a syncer; a nil filter ingests everything
func New(client Fetcher, store *catalog.Store, f *filter.Manager) *Syncer {
	if f == nil {
		f = filter.NewManager()
	}
	return &Syncer{
		client: client,
		store:  store,
		filter: f,
		logger: logger.AppLogger(),
		now:    time.Now,
	}
}

// Run executes one sync of (kind, window).
// A listing failure aborts before any catalog write and leaves the stored index untouched.
// Item failures are counted and never abort the run.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Statistics, error) {
	startTime := s.now()

	if opts.Kind != models.KindMovie && opts.Kind != models.KindSeries && opts.Kind != models.KindAll {
		return nil, apperrors.InvalidInputError("kind", fmt.Sprintf("unsupported kind %q", opts.Kind))
	}
	if opts.Window == "" {
		opts.Window = models.WindowDay
	}
	if opts.Window != models.WindowDay && opts.Window != models.WindowWeek {
		return nil, apperrors.InvalidInputError("window", fmt.Sprintf("unsupported window %q", opts.Window))
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	run := &models.SyncRun{
		Kind:       opts.Kind,
		TimeWindow: opts.Window,
		DryRun:     opts.DryRun,
		Status:     models.SyncInProgress,
		StartedAt:  startTime,
	}
	db := s.store.DB().WithContext(ctx)
	if err := db.Create(run).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to create sync run", err)
	}

	ctx = logger.ContextWithSyncRunID(ctx, run.ID)
	log := s.logger.WithFields(map[string]interface{}{
		"kind":    opts.Kind,
		"window":  opts.Window,
		"dry_run": opts.DryRun,
	})
	log.InfoContext(ctx, "starting trending sync")

	stats := &Statistics{RunID: run.ID}

	listing, err := s.client.TrendingAll(ctx, opts.Kind, opts.Window)
	if err != nil {
		abort := apperrors.SyncAbortedError("trending listing failed", err)
		s.finish(ctx, run, stats, startTime, abort)
		log.ErrorContext(ctx, "sync aborted before any write", err)
		return nil, abort
	}

	stats.Pages = listing.Pages
	stats.Listed = len(listing.Items)

	items := listing.Items
	if opts.Limit > 0 && len(items) > opts.Limit {
		stats.Skipped = len(items) - opts.Limit
		items = items[:opts.Limit]
		log.InfoContext(ctx, fmt.Sprintf("reached processing limit of %d entries", opts.Limit))
	}

	var analyzer *dryrun.Analyzer
	if opts.DryRun {
		analyzer = dryrun.NewAnalyzer()
	}

	var mu sync.Mutex
	tally := func(kind models.Kind, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case outcomeUpserted:
			stats.Upserted++
		case outcomeFailed:
			stats.Failed++
		case outcomeFiltered:
			stats.Filtered++
		case outcomeSkipped:
			stats.Skipped++
		}
		metrics.RecordSyncItem(string(kind), outcome)
	}

	workers := pool.New().WithMaxGoroutines(opts.Concurrency)
	for i, item := range items {
		workers.Go(func() {
			kind, outcome := s.processItem(ctx, opts, item, analyzer)
			tally(kind, outcome)

			if processed := i + 1; processed%100 == 0 {
				log.DebugContext(ctx, fmt.Sprintf("dispatched %d/%d entries", processed, len(items)))
			}
		})
	}
	workers.Wait()

	if err := ctx.Err(); err != nil {
		abort := apperrors.SyncAbortedError("sync interrupted", err)
		s.finish(ctx, run, stats, startTime, abort)
		return nil, abort
	}

	if opts.DryRun {
		stats.Audit = analyzer.Result()
	} else {
		// the index keeps every listed id, including those that failed or were filtered
		if err := s.store.SaveTrending(ctx, opts.Kind, opts.Window, listing.IDs(), listing.Kinds(), s.now()); err != nil {
			s.finish(ctx, run, stats, startTime, err)
			return nil, err
		}
	}

	s.finish(ctx, run, stats, startTime, nil)

	log.WithFields(map[string]interface{}{
		"pages":            stats.Pages,
		"listed":           stats.Listed,
		"upserted":         stats.Upserted,
		"failed":           stats.Failed,
		"filtered":         stats.Filtered,
		"skipped":          stats.Skipped,
		"duration_seconds": stats.Duration.Seconds(),
	}).InfoContext(ctx, "sync completed")

	return stats, nil
}

// processItem fetches, audits or upserts one listed entry and reports its kind and outcome
func (s *Syncer) processItem(ctx context.Context, opts Options, item tmdb.TrendingItem, analyzer *dryrun.Analyzer) (models.Kind, string) {
	kind := opts.Kind
	if kind == models.KindAll {
		switch item.MediaType {
		case string(models.KindMovie):
			kind = models.KindMovie
		case string(models.KindSeries):
			kind = models.KindSeries
		default:
			s.logger.WithFields(map[string]interface{}{
				"id":         item.ID,
				"media_type": item.MediaType,
			}).DebugContext(ctx, "skipping unsupported media type")
			return models.Kind(item.MediaType), outcomeSkipped
		}
	}

	if !s.filter.ShouldIngest(item.DisplayTitle(), item.OriginalLanguage, item.Adult) {
		if analyzer != nil {
			analyzer.Filtered(item.ID, kind, item.DisplayTitle())
		}
		return kind, outcomeFiltered
	}

	var record models.Record
	switch kind {
	case models.KindMovie:
		if movie := s.client.FetchMovie(ctx, item.ID); movie != nil {
			record = movie
		}
	case models.KindSeries:
		if series := s.client.FetchSeries(ctx, item.ID); series != nil {
			record = series
		}
	}

	if record == nil {
		if analyzer != nil {
			analyzer.Unresolved(item.ID, kind, item.DisplayTitle())
		}
		return kind, outcomeFailed
	}

	if analyzer != nil {
		analyzer.Inspect(record)
		return kind, outcomeAudited
	}

	var err error
	switch r := record.(type) {
	case *models.Movie:
		err = s.store.UpsertMovie(ctx, r)
	case *models.Series:
		err = s.store.UpsertSeries(ctx, r)
	}
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"id":   item.ID,
			"kind": kind,
		}).ErrorContext(ctx, "failed to upsert record", err)
		return kind, outcomeFailed
	}

	return kind, outcomeUpserted
}

// finish updates the sync run row with final statistics and records metrics
func (s *Syncer) finish(ctx context.Context, run *models.SyncRun, stats *Statistics, startTime time.Time, runErr error) {
	stats.Duration = s.now().Sub(startTime)

	now := s.now()
	run.Status = models.SyncSuccess
	if runErr != nil {
		run.Status = models.SyncFailed
		msg := runErr.Error()
		run.ErrorMessage = &msg
	}
	run.Pages = stats.Pages
	run.Listed = stats.Listed
	run.Upserted = stats.Upserted
	run.Failed = stats.Failed
	run.Filtered = stats.Filtered
	run.Skipped = stats.Skipped
	run.CompletedAt = &now

	// record the outcome even when the caller's context is already cancelled
	if err := s.store.DB().WithContext(context.WithoutCancel(ctx)).Save(run).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to update sync run", err)
	}

	metrics.RecordSyncRun(string(run.Kind), string(run.Status), stats.Duration)
}

// PruneRuns deletes sync runs started before cutoff and returns how many were removed
func PruneRuns(ctx context.Context, store *catalog.Store, cutoff time.Time) (int64, error) {
	result := store.DB().WithContext(ctx).Where("started_at < ?", cutoff).Delete(&models.SyncRun{})
	if result.Error != nil {
		return 0, apperrors.DatabaseError("failed to prune sync runs", result.Error)
	}
	return result.RowsAffected, nil
}
