package ingestion

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gmendes/carteira/internal/domain/models"
	"github.com/gmendes/carteira/internal/storage"
)

// A CDA filing for a competence month is one zip, cda_fi_YYYYMM.zip,
// holding eight composition blocks (BLC_1..BLC_8, one per asset class)
// plus the PL block.
const (
	cdaFilePrefix = "cda_fi_"
	cdaBlockCount = 8
)

// parseCDAZip opens a monthly CDA archive, parses every composition
// block and the PL block, and persists both in batches.
//
// Block files inside the archive are matched by name:
//   - cda_fi_BLC_<n>_<YYYYMM>.csv → holdings
//   - cda_fi_PL_<YYYYMM>.csv     → fund net assets
//
// A missing block is tolerated (not every class is filed every month);
// a malformed one fails the whole archive.
func parseCDAZip(ctx context.Context, path, period string, repo storage.Repository, batch int) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	compact := compactPeriod(period)
	total := 0

	for i := 1; i <= cdaBlockCount; i++ {
		name := fmt.Sprintf("%sBLC_%d_%s.csv", cdaFilePrefix, i, compact)
		f := findEntry(&zr.Reader, name)
		if f == nil {
			continue
		}
		n, err := parseHoldingsEntry(ctx, f, period, repo, batch)
		if err != nil {
			return 0, fmt.Errorf("block %s: %w", name, err)
		}
		total += n
	}

	plName := fmt.Sprintf("%sPL_%s.csv", cdaFilePrefix, compact)
	if f := findEntry(&zr.Reader, plName); f != nil {
		n, err := parsePLEntry(ctx, f, period, repo, batch)
		if err != nil {
			return 0, fmt.Errorf("block %s: %w", plName, err)
		}
		total += n
	}

	if total == 0 {
		return 0, fmt.Errorf("archive %s has no recognizable %s blocks", path, compact)
	}
	return total, nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// parseHoldingsEntry streams one BLC block into the holdings table.
func parseHoldingsEntry(ctx context.Context, f *zip.File, period string, repo storage.Repository, batch int) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry: %w", err)
	}
	defer func() { _ = rc.Close() }()

	return parseHoldingsCSV(ctx, rc, period, batch, repo.InsertHoldingsBatch)
}

// parseHoldingsCSV validates the BLC header and streams rows, flushing
// batches through persist.
func parseHoldingsCSV(ctx context.Context, r io.Reader, period string, batch int, persist func([]models.Holding) error) (int, error) {
	cr := newSemicolonReader(r)

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header, blcHeaders); err != nil {
		return 0, err
	}

	buf := make([]models.Holding, 0, batch)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := persist(buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	total := 0
	line := 1
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) != len(blcHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(blcHeaders), len(rec))
		}
		h, err := recordToHolding(rec, period)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		buf = append(buf, h)
		total++
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return 0, fmt.Errorf("flush batch ending line %d: %w", line, err)
			}
		}
	}

	if err := flush(); err != nil {
		return 0, fmt.Errorf("final flush: %w", err)
	}
	return total, nil
}

// parsePLEntry streams the PL block into the fund_pl table.
func parsePLEntry(ctx context.Context, f *zip.File, period string, repo storage.Repository, batch int) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry: %w", err)
	}
	defer func() { _ = rc.Close() }()

	return parsePLCSV(ctx, rc, period, batch, repo.InsertFundPLBatch)
}

func parsePLCSV(ctx context.Context, r io.Reader, period string, batch int, persist func([]models.FundPL) error) (int, error) {
	cr := newSemicolonReader(r)

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header, plHeaders); err != nil {
		return 0, err
	}

	buf := make([]models.FundPL, 0, batch)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := persist(buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	total := 0
	line := 1
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) != len(plHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(plHeaders), len(rec))
		}
		e, err := recordToFundPL(rec, period)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		buf = append(buf, e)
		total++
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return 0, fmt.Errorf("flush batch ending line %d: %w", line, err)
			}
		}
	}

	if err := flush(); err != nil {
		return 0, fmt.Errorf("final flush: %w", err)
	}
	return total, nil
}
