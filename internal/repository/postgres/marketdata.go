package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"dexter/internal/domain/marketdata"
	"dexter/internal/metrics"
	"dexter/pkg/errors"
)

// record counts one query against the shared database metrics.
func record(operation string, err error) {
	status := "success"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	metrics.DBQueries.WithLabelValues("postgres", operation, status).Inc()
}

// MarketDataRepository reads quotes, fundamentals, statements and the
// company search index from the hosted relational store.
type MarketDataRepository struct {
	db *sqlx.DB
}

// NewMarketDataRepository creates a repository over the given connection.
func NewMarketDataRepository(db *sqlx.DB) *MarketDataRepository {
	return &MarketDataRepository{db: db}
}

var _ marketdata.Repository = (*MarketDataRepository)(nil)

// GetQuote returns the latest quote for a ticker.
func (r *MarketDataRepository) GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, string, error) {
	const q = `
		SELECT ticker, company_name, price, change, change_percent, volume, market_cap, updated_at
		FROM quotes
		WHERE ticker = $1
		ORDER BY updated_at DESC
		LIMIT 1`

	var quote marketdata.Quote
	err := r.db.GetContext(ctx, &quote, q, ticker)
	record("get_quote", err)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, marketdata.SourcePostgres, errors.Wrapf(errors.ErrNotFound, "quote for %s", ticker)
		}
		return nil, marketdata.SourcePostgres, errors.Wrap(err, "get quote")
	}

	return &quote, marketdata.SourcePostgres, nil
}

// GetFundamentals returns headline fundamentals for a ticker.
func (r *MarketDataRepository) GetFundamentals(ctx context.Context, ticker string) (*marketdata.Fundamentals, string, error) {
	const q = `
		SELECT ticker, company_name, market_cap, pe_ratio, eps, dividend_yield,
		       revenue_ttm, net_income_ttm, gross_margin, updated_at
		FROM fundamentals
		WHERE ticker = $1`

	var f marketdata.Fundamentals
	err := r.db.GetContext(ctx, &f, q, ticker)
	record("get_fundamentals", err)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, marketdata.SourcePostgres, errors.Wrapf(errors.ErrNotFound, "fundamentals for %s", ticker)
		}
		return nil, marketdata.SourcePostgres, errors.Wrap(err, "get fundamentals")
	}

	return &f, marketdata.SourcePostgres, nil
}

// GetStatements returns income statement rows, most recent first.
func (r *MarketDataRepository) GetStatements(ctx context.Context, ticker, period string, limit int) ([]marketdata.Statement, string, error) {
	if limit <= 0 {
		limit = 4
	}

	const q = `
		SELECT ticker, period, fiscal_date, revenue, cost_of_revenue,
		       gross_profit, operating_income, net_income
		FROM income_statements
		WHERE ticker = $1 AND period = $2
		ORDER BY fiscal_date DESC
		LIMIT $3`

	var rows []marketdata.Statement
	err := r.db.SelectContext(ctx, &rows, q, ticker, period, limit)
	record("get_statements", err)
	if err != nil {
		return nil, marketdata.SourcePostgres, errors.Wrap(err, "get statements")
	}
	if len(rows) == 0 {
		return nil, marketdata.SourcePostgres, errors.Wrapf(errors.ErrNotFound, "statements for %s (%s)", ticker, period)
	}

	return rows, marketdata.SourcePostgres, nil
}

// Search matches tickers and company names case-insensitively.
func (r *MarketDataRepository) Search(ctx context.Context, query string, limit int) ([]marketdata.SearchHit, string, error) {
	if limit <= 0 {
		limit = 10
	}

	const q = `
		SELECT ticker, company_name, sector, exchange
		FROM companies
		WHERE ticker ILIKE $1 OR company_name ILIKE '%' || $2 || '%'
		ORDER BY market_cap DESC NULLS LAST
		LIMIT $3`

	var hits []marketdata.SearchHit
	err := r.db.SelectContext(ctx, &hits, q, query, query, limit)
	record("search", err)
	if err != nil {
		return nil, marketdata.SourcePostgres, errors.Wrap(err, "search companies")
	}

	return hits, marketdata.SourcePostgres, nil
}
