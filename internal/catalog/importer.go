package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-orders/internal/cache"
	"clinic-orders/internal/model"

	"github.com/rs/zerolog"
)

const (
	importLockKey = "lock:catalog-import"
	importLockTTL = 10 * time.Minute
)

// ProductWriter persists parsed products.
type ProductWriter interface {
	UpsertBatch(ctx context.Context, products []model.Product) error
}

// Importer loads the catalogue source and upserts it in batches.
type Importer struct {
	source    Source
	path      string
	parser    *Parser
	writer    ProductWriter
	cache     cache.Cache
	locker    cache.Locker
	batchSize int
	logger    zerolog.Logger
}

// ImporterConfig wires an Importer.
type ImporterConfig struct {
	Source    Source
	Path      string
	Supplier  string
	BatchSize int
	Writer    ProductWriter
	Cache     cache.Cache
	Locker    cache.Locker
}

// NewImporter creates an Importer. A nil Cache or Locker falls back to the
// in-process implementations.
func NewImporter(cfg ImporterConfig, logger zerolog.Logger) *Importer {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNoopCache()
	}
	if cfg.Locker == nil {
		cfg.Locker = cache.NewLocalLocker()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	return &Importer{
		source:    cfg.Source,
		path:      cfg.Path,
		parser:    NewParser(cfg.Supplier),
		writer:    cfg.Writer,
		cache:     cfg.Cache,
		locker:    cfg.Locker,
		batchSize: cfg.BatchSize,
		logger:    logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Run performs one import. Batches are written sequentially, each in its
// own transaction; a failed batch is logged and counted and the run moves
// on to the next one.
func (im *Importer) Run(ctx context.Context) (*model.ImportResult, error) {
	release, err := im.locker.Acquire(ctx, importLockKey, importLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			im.logger.Warn().Msg("catalog import already running")
			return nil, model.ErrImportInProgress
		}
		return nil, err
	}
	defer release()

	start := time.Now()

	rc, err := im.source.Open(ctx, im.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog source: %w", err)
	}
	defer rc.Close()

	parsed, err := im.parser.Parse(rc)
	if err != nil {
		im.logger.Error().Err(err).Str("path", im.path).Msg("failed to parse catalog source")
		return nil, err
	}

	result := &model.ImportResult{
		Skipped:      len(parsed.Skipped),
		SkippedLines: parsed.Skipped,
	}
	if result.SkippedLines == nil {
		result.SkippedLines = []model.SkippedLine{}
	}

	for from := 0; from < len(parsed.Parsed); from += im.batchSize {
		if err := ctx.Err(); err != nil {
			im.logger.Warn().Int("imported", result.Imported).Msg("catalog import cancelled")
			return nil, err
		}

		to := min(from+im.batchSize, len(parsed.Parsed))
		batch := parsed.Parsed[from:to]

		if err := im.writer.UpsertBatch(ctx, batch); err != nil {
			im.logger.Error().
				Err(err).
				Int("batch_start", from).
				Int("batch_size", len(batch)).
				Msg("catalog batch failed, continuing")
			result.FailedBatches++
			result.FailedRecords += len(batch)
			continue
		}

		result.Imported += len(batch)
	}

	if result.Imported > 0 {
		if err := im.cache.Invalidate(ctx); err != nil {
			im.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
		}
	}

	im.logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed_batches", result.FailedBatches).
		Dur("duration", time.Since(start)).
		Msg("catalog import finished")

	return result, nil
}
