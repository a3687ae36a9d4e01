package main

import (
	"context"
	"flag"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"dexter/internal/adapters/config"
	"dexter/pkg/logger"
)

// Seeds the market data tables with a small development dataset so the
// chat agent has something to answer about locally.
//
// Usage:
//   go run ./cmd/seeder            # create schema and insert sample rows
//   go run ./cmd/seeder -dry-run   # validate config and connectivity only
func main() {
	dryRun := flag.Bool("dry-run", false, "Connect and validate without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Seeding market data into %s", cfg.Postgres.Database)

	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *dryRun {
		log.Info("✓ Dry-run: connection validated")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	if err := insertSamples(ctx, db); err != nil {
		log.Fatalf("Failed to insert samples: %v", err)
	}

	log.Info("✓ Seed complete")
}

func createSchema(ctx context.Context, db *sqlx.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS companies (
		ticker       TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		sector       TEXT NOT NULL DEFAULT '',
		exchange     TEXT NOT NULL DEFAULT '',
		market_cap   BIGINT
	);

	CREATE TABLE IF NOT EXISTS quotes (
		ticker         TEXT NOT NULL,
		company_name   TEXT NOT NULL,
		price          NUMERIC(18,4) NOT NULL,
		change         NUMERIC(18,4) NOT NULL,
		change_percent NUMERIC(8,4) NOT NULL,
		volume         BIGINT NOT NULL,
		market_cap     BIGINT NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS quotes_ticker_updated_idx ON quotes (ticker, updated_at DESC);

	CREATE TABLE IF NOT EXISTS fundamentals (
		ticker         TEXT PRIMARY KEY,
		company_name   TEXT NOT NULL,
		market_cap     BIGINT NOT NULL,
		pe_ratio       NUMERIC(10,2) NOT NULL,
		eps            NUMERIC(10,2) NOT NULL,
		dividend_yield NUMERIC(6,4) NOT NULL,
		revenue_ttm    BIGINT NOT NULL,
		net_income_ttm BIGINT NOT NULL,
		gross_margin   NUMERIC(6,4) NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS income_statements (
		ticker           TEXT NOT NULL,
		period           TEXT NOT NULL,
		fiscal_date      TEXT NOT NULL,
		revenue          BIGINT NOT NULL,
		cost_of_revenue  BIGINT NOT NULL,
		gross_profit     BIGINT NOT NULL,
		operating_income BIGINT NOT NULL,
		net_income       BIGINT NOT NULL,
		PRIMARY KEY (ticker, period, fiscal_date)
	);`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func insertSamples(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	companies := []struct {
		ticker, name, sector, exchange string
		marketCap                      int64
	}{
		{"NVDA", "NVIDIA Corporation", "Technology", "NASDAQ", 3_400_000_000_000},
		{"AAPL", "Apple Inc.", "Technology", "NASDAQ", 3_300_000_000_000},
		{"MSFT", "Microsoft Corporation", "Technology", "NASDAQ", 3_100_000_000_000},
		{"TSLA", "Tesla, Inc.", "Consumer Cyclical", "NASDAQ", 1_100_000_000_000},
	}

	for _, c := range companies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO companies (ticker, company_name, sector, exchange, market_cap)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ticker) DO UPDATE SET market_cap = EXCLUDED.market_cap`,
			c.ticker, c.name, c.sector, c.exchange, c.marketCap); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quotes (ticker, company_name, price, change, change_percent, volume, market_cap)
			VALUES ($1, $2, 100.00, 1.50, 1.52, 25000000, $3)`,
			c.ticker, c.name, c.marketCap); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fundamentals (ticker, company_name, market_cap, pe_ratio, eps, dividend_yield,
			                          revenue_ttm, net_income_ttm, gross_margin)
			VALUES ($1, $2, $3, 35.00, 3.10, 0.0040, 120000000000, 60000000000, 0.7200)
			ON CONFLICT (ticker) DO NOTHING`,
			c.ticker, c.name, c.marketCap); err != nil {
			return err
		}

		for year := 2022; year <= 2024; year++ {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO income_statements (ticker, period, fiscal_date, revenue, cost_of_revenue,
				                               gross_profit, operating_income, net_income)
				VALUES ($1, 'annual', $2, 100000000000, 30000000000, 70000000000, 55000000000, 50000000000)
				ON CONFLICT DO NOTHING`,
				c.ticker, itoaYear(year)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func itoaYear(year int) string {
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
