//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gmendes/carteira/internal/domain/models"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "carteira",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=carteira sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "carteira")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	// migrations path relative to this test file (internal/storage → ../../db/migrations)
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
}

func fptr(v float64) *float64 { return &v }

func TestRepository_Integration_RoundTrip(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()
	runMigrations(t, db)

	repo := NewRepository(db)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{Ticker: "PETR4", Side: models.Buy, Quantity: 100, Price: 10, TradeDate: day},
		{Ticker: "PETR4", Side: models.Sell, Quantity: 40, Price: 15, TradeDate: day},
		{Ticker: "VALE3", Side: models.Buy, Quantity: math.NaN(), Price: math.NaN(), TradeDate: day},
	}
	if err := repo.InsertTradesBatch(trades); err != nil {
		t.Fatalf("InsertTradesBatch: %v", err)
	}

	got, err := repo.GetTrades("PETR4", nil, nil)
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 2 || got[0].Side != models.Buy || got[1].Side != models.Sell {
		t.Fatalf("unexpected trades: %+v", got)
	}

	// NaN numeric cells round-trip as NULL → NaN
	nan, err := repo.GetTrades("VALE3", nil, nil)
	if err != nil || len(nan) != 1 {
		t.Fatalf("GetTrades VALE3: %v (%d rows)", err, len(nan))
	}
	if !math.IsNaN(nan[0].Quantity) || !math.IsNaN(nan[0].Price) {
		t.Fatalf("NULL mapping broken: %+v", nan[0])
	}

	holdings := []models.Holding{
		{HolderCNPJ: "11222333000144", AssetCNPJ: "44555666000177", AssetName: "FUNDO Y", Category: models.CategoryFund, MarketValue: 100000, AdminFee: fptr(0.5), Period: "2025-06"},
		{HolderCNPJ: "11222333000144", AssetName: "PETR4", Category: models.CategoryEquity, MarketValue: math.NaN(), Period: "2025-06"},
	}
	if err := repo.InsertHoldingsBatch(holdings); err != nil {
		t.Fatalf("InsertHoldingsBatch: %v", err)
	}
	hs, err := repo.GetHoldings("11222333000144", "2025-06")
	if err != nil || len(hs) != 2 {
		t.Fatalf("GetHoldings: %v (%d rows)", err, len(hs))
	}
	// NULLS LAST ordering puts the NaN row second
	if hs[0].AssetName != "FUNDO Y" || !math.IsNaN(hs[1].MarketValue) {
		t.Fatalf("unexpected holdings: %+v", hs)
	}

	if err := repo.InsertFundPLBatch([]models.FundPL{{CNPJ: "11222333000144", Period: "2025-06", NetAssets: 1000000, Competence: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}}); err != nil {
		t.Fatalf("InsertFundPLBatch: %v", err)
	}
	pl, err := repo.GetFundPL("11222333000144", "2025-06")
	if err != nil || pl != 1000000 {
		t.Fatalf("GetFundPL: pl=%v err=%v", pl, err)
	}

	entries := []models.RegistryEntry{
		{CNPJ: "11222333000144", Name: "FUNDO X", Status: "EM FUNCIONAMENTO NORMAL", AdminFee: fptr(1.2)},
	}
	if err := repo.UpsertRegistryBatch(entries); err != nil {
		t.Fatalf("UpsertRegistryBatch: %v", err)
	}
	// Upsert again with a new fee: must update, not duplicate
	entries[0].AdminFee = fptr(1.5)
	if err := repo.UpsertRegistryBatch(entries); err != nil {
		t.Fatalf("UpsertRegistryBatch update: %v", err)
	}
	fee, err := repo.GetRegistryFee("11222333000144")
	if err != nil || fee == nil || *fee != 1.5 {
		t.Fatalf("GetRegistryFee: fee=%v err=%v", fee, err)
	}

	// Ingestion log round trip
	if err := repo.UpsertIngestionLog(IngestCDA, "2025-06", "cda_fi_202506.zip", 2); err != nil {
		t.Fatalf("UpsertIngestionLog: %v", err)
	}
	ok, err := repo.HasIngestion(IngestCDA, "2025-06")
	if err != nil || !ok {
		t.Fatalf("HasIngestion: ok=%v err=%v", ok, err)
	}
	ok, err = repo.HasIngestion(IngestTrades, "2025-06-02")
	if err != nil || ok {
		t.Fatalf("HasIngestion other kind: ok=%v err=%v", ok, err)
	}

	// Deletes
	if err := repo.DeleteHoldingsByPeriod("2025-06"); err != nil {
		t.Fatalf("DeleteHoldingsByPeriod: %v", err)
	}
	hs, err = repo.GetHoldings("11222333000144", "2025-06")
	if err != nil || len(hs) != 0 {
		t.Fatalf("holdings not deleted: %v (%d rows)", err, len(hs))
	}
	if err := repo.DeleteTradesByDate(day); err != nil {
		t.Fatalf("DeleteTradesByDate: %v", err)
	}
	got, err = repo.GetTrades("", nil, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("trades not deleted: %v (%d rows)", err, len(got))
	}
}
