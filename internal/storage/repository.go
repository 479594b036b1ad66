package storage

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	pq "github.com/lib/pq"

	"github.com/gmendes/carteira/internal/domain/models"
)

// Ingestion kinds recorded in ingestion_log. The key column carries
// the period ("2025-06") for CDA loads, the business day ("2025-06-02")
// for trade notes, and the filename for registry loads.
const (
	IngestCDA      = "cda"
	IngestRegistry = "registry"
	IngestTrades   = "trades"
)

// Repository defines the contract for all DB operations of the service.
type Repository interface {
	InsertHoldingsBatch(holdings []models.Holding) error
	InsertFundPLBatch(entries []models.FundPL) error
	UpsertRegistryBatch(entries []models.RegistryEntry) error
	InsertTradesBatch(trades []models.Trade) error

	GetHoldings(cnpj, period string) ([]models.Holding, error)
	GetFundPL(cnpj, period string) (float64, error)
	GetRegistryFee(cnpj string) (*float64, error)
	GetTrades(ticker string, startDate, endDate *time.Time) ([]models.Trade, error)

	HasIngestion(kind, key string) (bool, error)
	UpsertIngestionLog(kind, key, filename string, rowCount int) error
	DeleteHoldingsByPeriod(period string) error
	DeleteTradesByDate(date time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// toNullFloat maps NaN (missing numeric cell) to NULL so the database
// keeps the missing/zero distinction the fee resolver relies on.
func toNullFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func toNullFee(fee *float64) interface{} {
	if fee == nil {
		return nil
	}
	return *fee
}

// InsertHoldingsBatch bulk-loads portfolio snapshot rows in a single
// transaction via COPY.
func (r *repository) InsertHoldingsBatch(holdings []models.Holding) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"fund_holdings",
		"holder_cnpj",
		"asset_cnpj",
		"asset_name",
		"category",
		"market_value",
		"admin_fee",
		"period",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, h := range holdings {
		if _, err := stmt.Exec(
			h.HolderCNPJ,
			h.AssetCNPJ,
			h.AssetName,
			h.Category,
			toNullFloat(h.MarketValue),
			toNullFee(h.AdminFee),
			h.Period,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// InsertFundPLBatch bulk-loads per-period fund PL rows.
func (r *repository) InsertFundPLBatch(entries []models.FundPL) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn("fund_pl", "cnpj", "period", "net_assets", "competence"))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, e := range entries {
		if _, err := stmt.Exec(e.CNPJ, e.Period, toNullFloat(e.NetAssets), e.Competence); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpsertRegistryBatch refreshes the fund registry. The registry is
// small (tens of thousands of rows), so per-row upserts inside one
// transaction are enough.
func (r *repository) UpsertRegistryBatch(entries []models.RegistryEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fund_registry (cnpj, name, status, admin_fee, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cnpj)
		DO UPDATE SET name = EXCLUDED.name,
					  status = EXCLUDED.status,
					  admin_fee = EXCLUDED.admin_fee,
					  updated_at = NOW()
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, e := range entries {
		if _, err := stmt.Exec(e.CNPJ, e.Name, e.Status, toNullFee(e.AdminFee)); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// InsertTradesBatch bulk-loads trade-note rows via COPY.
func (r *repository) InsertTradesBatch(trades []models.Trade) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"trades",
		"ticker",
		"side",
		"quantity",
		"price",
		"trade_date",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, t := range trades {
		if _, err := stmt.Exec(
			t.Ticker,
			string(t.Side),
			toNullFloat(t.Quantity),
			toNullFloat(t.Price),
			t.TradeDate,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetHoldings returns the portfolio snapshot of a fund for a period.
// NULL market values come back as NaN, NULL fees as nil: the fee
// resolver distinguishes missing from zero.
func (r *repository) GetHoldings(cnpj, period string) ([]models.Holding, error) {
	rows, err := r.db.Query(`
		SELECT holder_cnpj, asset_cnpj, asset_name, category, market_value, admin_fee, period
		FROM fund_holdings
		WHERE holder_cnpj = $1 AND period = $2
		ORDER BY market_value DESC NULLS LAST
	`, cnpj, period)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		var value, fee sql.NullFloat64
		if err := rows.Scan(&h.HolderCNPJ, &h.AssetCNPJ, &h.AssetName, &h.Category, &value, &fee, &h.Period); err != nil {
			return nil, err
		}
		if value.Valid {
			h.MarketValue = value.Float64
		} else {
			h.MarketValue = math.NaN()
		}
		if fee.Valid {
			f := fee.Float64
			h.AdminFee = &f
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetFundPL returns the fund's net assets for the period, 0 when the
// fund filed nothing.
func (r *repository) GetFundPL(cnpj, period string) (float64, error) {
	var pl sql.NullFloat64
	err := r.db.QueryRow(`SELECT net_assets FROM fund_pl WHERE cnpj = $1 AND period = $2`, cnpj, period).Scan(&pl)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !pl.Valid {
		return 0, nil
	}
	return pl.Float64, nil
}

// GetRegistryFee returns the registered nominal fee of a fund, nil
// when the fund is unknown or its fee column is NULL.
func (r *repository) GetRegistryFee(cnpj string) (*float64, error) {
	var fee sql.NullFloat64
	err := r.db.QueryRow(`SELECT admin_fee FROM fund_registry WHERE cnpj = $1`, cnpj).Scan(&fee)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !fee.Valid {
		return nil, nil
	}
	f := fee.Float64
	return &f, nil
}

// GetTrades returns trades ordered by trade date (then insertion
// order), which is the ordering contract the ledger depends on.
func (r *repository) GetTrades(ticker string, startDate, endDate *time.Time) ([]models.Trade, error) {
	conditions := "TRUE"
	var args []interface{}
	if ticker != "" {
		args = append(args, ticker)
		conditions = fmt.Sprintf("ticker = $%d", len(args))
	}
	if startDate != nil {
		args = append(args, *startDate)
		conditions += fmt.Sprintf(" AND trade_date >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		conditions += fmt.Sprintf(" AND trade_date <= $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT ticker, side, quantity, price, trade_date
		FROM trades
		WHERE %s
		ORDER BY trade_date, id
	`, conditions)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		var side string
		var qty, price sql.NullFloat64
		if err := rows.Scan(&t.Ticker, &side, &qty, &price, &t.TradeDate); err != nil {
			return nil, err
		}
		t.Side = models.Side(side)
		if qty.Valid {
			t.Quantity = qty.Float64
		} else {
			t.Quantity = math.NaN()
		}
		if price.Valid {
			t.Price = price.Float64
		} else {
			t.Price = math.NaN()
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// HasIngestion checks if a load was already recorded for a kind/key.
func (r *repository) HasIngestion(kind, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE kind = $1 AND key = $2)`, kind, key).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertIngestionLog records (or updates) an ingestion entry.
func (r *repository) UpsertIngestionLog(kind, key, filename string, rowCount int) error {
	_, err := r.db.Exec(`
		INSERT INTO ingestion_log (kind, key, filename, row_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, key)
		DO UPDATE SET filename = EXCLUDED.filename,
					  row_count = EXCLUDED.row_count,
					  ingested_at = NOW()
	`, kind, key, filename, rowCount)
	return err
}

// DeleteHoldingsByPeriod removes a period's snapshot and PL rows before
// a forced reload.
func (r *repository) DeleteHoldingsByPeriod(period string) error {
	if _, err := r.db.Exec(`DELETE FROM fund_holdings WHERE period = $1`, period); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM fund_pl WHERE period = $1`, period)
	return err
}

// DeleteTradesByDate removes all trades for a given trade_date.
func (r *repository) DeleteTradesByDate(date time.Time) error {
	_, err := r.db.Exec(`DELETE FROM trades WHERE trade_date = $1`, date)
	return err
}
