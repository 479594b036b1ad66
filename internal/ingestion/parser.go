package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gmendes/carteira/internal/domain/models"
)

// Expected headers enforce strict column ordering for each CVM-derived
// file kind. If a header doesn't match EXACTLY (order + count), the
// whole file is rejected; cells inside a valid row may be empty.
var (
	// CDA composition blocks (BLC_1..BLC_8), one row per held asset.
	blcHeaders = []string{
		"TP_FUNDO",
		"CNPJ_FUNDO",
		"DENOM_SOCIAL",
		"DT_COMPTC",
		"TP_APLIC",
		"CNPJ_FUNDO_COTA",
		"NM_FUNDO_COTA",
		"VL_MERC_POS_FINAL",
		"TAXA_ADM",
	}

	// CDA PL block, one row per fund.
	plHeaders = []string{
		"CNPJ_FUNDO",
		"DENOM_SOCIAL",
		"DT_COMPTC",
		"VL_PATRIM_LIQ",
	}

	// Fund registry (cad_fi).
	registryHeaders = []string{
		"CNPJ_FUNDO",
		"DENOM_SOCIAL",
		"SIT",
		"TAXA_ADM",
	}

	// Manual trade-note exports.
	tradeHeaders = []string{
		"TICKER",
		"LADO",
		"QUANTIDADE",
		"PRECO",
		"DATA",
	}
)

// tpAplicCategory collapses the free-text TP_APLIC classes of the CDA
// into the coarse categories the reports use.
func tpAplicCategory(tpAplic string) string {
	s := strings.ToUpper(strings.TrimSpace(tpAplic))
	switch {
	case strings.Contains(s, "COTAS DE FUNDOS"), strings.Contains(s, "FUNDO"):
		return models.CategoryFund
	case strings.Contains(s, "AÇÕES"), strings.Contains(s, "ACOES"):
		return models.CategoryEquity
	case strings.Contains(s, "TÍTULOS PÚBLICOS"), strings.Contains(s, "TITULOS PUBLICOS"),
		strings.Contains(s, "DEBÊNTURE"), strings.Contains(s, "DEBENTURE"),
		strings.Contains(s, "CDB"), strings.Contains(s, "LETRA"):
		return models.CategoryBond
	case strings.Contains(s, "SWAP"), strings.Contains(s, "OPÇ"), strings.Contains(s, "OPC"),
		strings.Contains(s, "TERMO"), strings.Contains(s, "FUTURO"):
		return models.CategoryDerivative
	case strings.Contains(s, "DISPONIBILIDADE"), strings.Contains(s, "COMPROMISSO"):
		return models.CategoryCash
	default:
		return models.CategoryOther
	}
}

// onlyDigits strips the formatting of a CNPJ ("11.222.333/0001-44" →
// "11222333000144"). Registered CNPJs are stored bare.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// parseDecimal parses a Brazilian decimal (comma separator). An empty
// cell yields NaN: missing, not zero.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// parseOptionalDecimal parses a fee cell; empty stays nil so the
// resolver can tell unknown from an explicit zero.
func parseOptionalDecimal(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseDecimal(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// validateHeader checks strict order and count.
func validateHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("invalid header length: expected %d, got %d", len(want), len(got))
	}
	for i, h := range got {
		if strings.TrimSpace(h) != want[i] {
			return fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, want[i], h)
		}
	}
	return nil
}

// newSemicolonReader builds a reader for the ';'-separated CVM files.
func newSemicolonReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // length is checked explicitly per row
	return cr
}

// recordToHolding converts one BLC record (length already validated)
// into a models.Holding. Strict about formats, tolerant of empty cells.
func recordToHolding(rec []string, period string) (models.Holding, error) {
	var h models.Holding
	h.Period = period

	h.HolderCNPJ = onlyDigits(rec[1])
	if h.HolderCNPJ == "" {
		return h, fmt.Errorf("missing CNPJ_FUNDO")
	}

	h.Category = tpAplicCategory(rec[4])
	h.AssetCNPJ = onlyDigits(rec[5])
	h.AssetName = strings.TrimSpace(rec[6])
	if h.AssetName == "" {
		h.AssetName = strings.TrimSpace(rec[4])
	}

	v, err := parseDecimal(rec[7])
	if err != nil {
		return h, fmt.Errorf("invalid VL_MERC_POS_FINAL: %v", err)
	}
	h.MarketValue = v

	fee, err := parseOptionalDecimal(rec[8])
	if err != nil {
		return h, fmt.Errorf("invalid TAXA_ADM: %v", err)
	}
	h.AdminFee = fee

	return h, nil
}

// recordToFundPL converts one PL record into a models.FundPL.
func recordToFundPL(rec []string, period string) (models.FundPL, error) {
	var e models.FundPL
	e.Period = period

	e.CNPJ = onlyDigits(rec[0])
	if e.CNPJ == "" {
		return e, fmt.Errorf("missing CNPJ_FUNDO")
	}

	if s := strings.TrimSpace(rec[2]); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return e, fmt.Errorf("invalid DT_COMPTC: %v", err)
		}
		e.Competence = d
	}

	v, err := parseDecimal(rec[3])
	if err != nil {
		return e, fmt.Errorf("invalid VL_PATRIM_LIQ: %v", err)
	}
	e.NetAssets = v

	return e, nil
}

// recordToRegistryEntry converts one cad_fi record.
func recordToRegistryEntry(rec []string) (models.RegistryEntry, error) {
	var e models.RegistryEntry

	e.CNPJ = onlyDigits(rec[0])
	if e.CNPJ == "" {
		return e, fmt.Errorf("missing CNPJ_FUNDO")
	}
	e.Name = strings.TrimSpace(rec[1])
	e.Status = strings.TrimSpace(rec[2])

	fee, err := parseOptionalDecimal(rec[3])
	if err != nil {
		return e, fmt.Errorf("invalid TAXA_ADM: %v", err)
	}
	e.AdminFee = fee

	return e, nil
}

// recordToTrade converts one trade-note record. Side accepts C/V and
// the spelled-out COMPRA/VENDA found in older exports.
func recordToTrade(rec []string) (models.Trade, error) {
	var t models.Trade

	t.Ticker = strings.ToUpper(strings.TrimSpace(rec[0]))
	if t.Ticker == "" {
		return t, fmt.Errorf("missing TICKER")
	}

	switch strings.ToUpper(strings.TrimSpace(rec[1])) {
	case "C", "COMPRA":
		t.Side = models.Buy
	case "V", "VENDA":
		t.Side = models.Sell
	default:
		return t, fmt.Errorf("invalid LADO: %q", rec[1])
	}

	qty, err := parseDecimal(rec[2])
	if err != nil {
		return t, fmt.Errorf("invalid QUANTIDADE: %v", err)
	}
	t.Quantity = qty

	price, err := parseDecimal(rec[3])
	if err != nil {
		return t, fmt.Errorf("invalid PRECO: %v", err)
	}
	t.Price = price

	if s := strings.TrimSpace(rec[4]); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return t, fmt.Errorf("invalid DATA: %v", err)
		}
		t.TradeDate = d
	}

	return t, nil
}

// parseTradesFile validates the header and streams the rows of one
// trade-note export, flushing batches through persist.
func parseTradesFile(ctx context.Context, r io.Reader, batch int, persist func([]models.Trade) error) (int, error) {
	cr := newSemicolonReader(r)

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header, tradeHeaders); err != nil {
		return 0, err
	}

	buf := make([]models.Trade, 0, batch)
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

		if len(rec) != len(tradeHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(tradeHeaders), len(rec))
		}
		t, err := recordToTrade(rec)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		buf = append(buf, t)
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

// parseRegistryFile validates the header and streams cad_fi rows.
func parseRegistryFile(ctx context.Context, r io.Reader, batch int, persist func([]models.RegistryEntry) error) (int, error) {
	cr := newSemicolonReader(r)

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header, registryHeaders); err != nil {
		return 0, err
	}

	buf := make([]models.RegistryEntry, 0, batch)
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

		if len(rec) != len(registryHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(registryHeaders), len(rec))
		}
		e, err := recordToRegistryEntry(rec)
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
