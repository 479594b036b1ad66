package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gmendes/carteira/internal/logger"
	"github.com/gmendes/carteira/internal/storage"
)

const defaultBatchSize = 5000

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.Repository {
	return storage.NewRepository(db)
}

// ProcessCDADir ingests the monthly CDA archives for the last nMonths
// competence months from dir.
//
// Behavior:
//   - Expects one archive per month named "cda_fi_YYYYMM.zip".
//   - Validates presence of every expected archive upfront.
//   - Processes archives concurrently (clamped to 1..6, default
//     min(6, NumCPU)); the first error cancels the rest.
//   - Idempotent per period via ingestion_log; force deletes and
//     reloads the period.
func ProcessCDADir(ctx context.Context, dir string, db *sql.DB, nMonths, parallel int, force bool) error {
	repo := repoCtor(db)

	if nMonths < 1 {
		nMonths = 1
	}
	if nMonths > 24 {
		nMonths = 24
	}
	periods := LastNPeriods(nMonths, time.Now())

	// Build expected filenames & validate presence upfront.
	var files []string
	var missing []string
	for _, p := range periods {
		name := cdaFilePrefix + compactPeriod(p) + ".zip"
		full := filepath.Join(dir, name)
		files = append(files, full)

		if _, err := os.Stat(full); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, name)
			} else {
				return fmt.Errorf("stat failed for %s: %w", full, err)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}

	logger.L().Info().Int("archives", len(files)).Str("dir", dir).Msg("cda ingestion start")

	maxParallel := 6
	if parallel > 0 {
		if parallel > 6 {
			parallel = 6
		}
		maxParallel = parallel
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	// errgroup cancels siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)

	for i, file := range files {
		idx := i
		period := periods[i]
		f := file
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()
			base := filepath.Base(f)
			logger.L().Info().Int("idx", idx+1).Int("total", len(files)).Str("file", base).Msg("archive start")

			exists, err := repo.HasIngestion(storage.IngestCDA, period)
			if err != nil {
				return fmt.Errorf("archive %s: check ingestion log: %w", f, err)
			}
			if exists && !force {
				logger.L().Info().Str("file", base).Bool("skipped", true).Msg("period already ingested")
				return nil
			}
			if exists && force {
				if err := repo.DeleteHoldingsByPeriod(period); err != nil {
					return fmt.Errorf("archive %s: delete existing: %w", f, err)
				}
			}

			total, err := parseCDAZip(gctx, f, period, repo, defaultBatchSize)
			if err != nil {
				logger.L().Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("archive failed")
				return fmt.Errorf("archive %s: %w", f, err)
			}
			if err := repo.UpsertIngestionLog(storage.IngestCDA, period, base, total); err != nil {
				return fmt.Errorf("archive %s: upsert ingestion log: %w", f, err)
			}
			logger.L().Info().Str("file", base).Str("period", period).Int("rows", total).
				Dur("elapsed", time.Since(start)).Bool("force", force).Msg("archive done")
			return nil
		})
	}

	return g.Wait()
}

// ProcessRegistryFile ingests a cad_fi fund-registry export. The
// registry is always fully re-upserted; force only matters for the
// ingestion-log bookkeeping.
func ProcessRegistryFile(ctx context.Context, path string, db *sql.DB) error {
	repo := repoCtor(db)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	start := time.Now()
	total, err := parseRegistryFile(ctx, f, defaultBatchSize, repo.UpsertRegistryBatch)
	if err != nil {
		return fmt.Errorf("registry %s: %w", path, err)
	}

	base := filepath.Base(path)
	if err := repo.UpsertIngestionLog(storage.IngestRegistry, base, base, total); err != nil {
		return fmt.Errorf("registry %s: upsert ingestion log: %w", path, err)
	}
	logger.L().Info().Str("file", base).Int("rows", total).Dur("elapsed", time.Since(start)).Msg("registry done")
	return nil
}

// ProcessTradesDir ingests the manual trade-note exports for the last
// nDays Brazilian business days from dir (one file per day,
// "DD-MM-YYYY_NEGOCIOS.csv"). Days without a file are skipped with a
// warning: not every day has manual trades.
func ProcessTradesDir(ctx context.Context, dir string, db *sql.DB, nDays int, force bool) error {
	repo := repoCtor(db)

	if nDays < 1 {
		nDays = 1
	}
	days := LastNBusinessDays(nDays, time.Now())

	for _, d := range days {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := tradeFileName(d)
		full := filepath.Join(dir, name)
		if _, err := os.Stat(full); os.IsNotExist(err) {
			logger.L().Warn().Str("file", name).Msg("no trade notes for day")
			continue
		}

		key := d.Format("2006-01-02")
		exists, err := repo.HasIngestion(storage.IngestTrades, key)
		if err != nil {
			return fmt.Errorf("file %s: check ingestion log: %w", full, err)
		}
		if exists && !force {
			logger.L().Info().Str("file", name).Bool("skipped", true).Msg("day already ingested")
			continue
		}
		if exists && force {
			if err := repo.DeleteTradesByDate(d); err != nil {
				return fmt.Errorf("file %s: delete existing: %w", full, err)
			}
		}

		f, err := os.Open(full)
		if err != nil {
			return fmt.Errorf("open %s: %w", full, err)
		}
		total, err := parseTradesFile(ctx, f, defaultBatchSize, repo.InsertTradesBatch)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("file %s: %w", full, err)
		}

		if err := repo.UpsertIngestionLog(storage.IngestTrades, key, name, total); err != nil {
			return fmt.Errorf("file %s: upsert ingestion log: %w", full, err)
		}
		logger.L().Info().Str("file", name).Int("rows", total).Msg("trade notes done")
	}

	return nil
}
