package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price snapshot for one ticker.
type Quote struct {
	Ticker        string          `db:"ticker" json:"ticker"`
	CompanyName   string          `db:"company_name" json:"companyName"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Change        decimal.Decimal `db:"change" json:"change"`
	ChangePercent decimal.Decimal `db:"change_percent" json:"changePercent"`
	Volume        int64           `db:"volume" json:"volume"`
	MarketCap     int64           `db:"market_cap" json:"marketCap"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// Fundamentals holds the headline valuation metrics for one ticker.
type Fundamentals struct {
	Ticker        string          `db:"ticker" json:"ticker"`
	CompanyName   string          `db:"company_name" json:"companyName"`
	MarketCap     int64           `db:"market_cap" json:"marketCap"`
	PERatio       decimal.Decimal `db:"pe_ratio" json:"peRatio"`
	EPS           decimal.Decimal `db:"eps" json:"eps"`
	DividendYield decimal.Decimal `db:"dividend_yield" json:"dividendYield"`
	RevenueTTM    int64           `db:"revenue_ttm" json:"revenueTTM"`
	NetIncomeTTM  int64           `db:"net_income_ttm" json:"netIncomeTTM"`
	GrossMargin   decimal.Decimal `db:"gross_margin" json:"grossMargin"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// Statement is a single income-statement row.
type Statement struct {
	Ticker          string `db:"ticker" json:"ticker"`
	Period          string `db:"period" json:"period"` // "annual" or "quarterly"
	FiscalDate      string `db:"fiscal_date" json:"fiscalDate"`
	Revenue         int64  `db:"revenue" json:"revenue"`
	CostOfRevenue   int64  `db:"cost_of_revenue" json:"costOfRevenue"`
	GrossProfit     int64  `db:"gross_profit" json:"grossProfit"`
	OperatingIncome int64  `db:"operating_income" json:"operatingIncome"`
	NetIncome       int64  `db:"net_income" json:"netIncome"`
}

// SearchHit is one row of a ticker/company search.
type SearchHit struct {
	Ticker      string `db:"ticker" json:"ticker"`
	CompanyName string `db:"company_name" json:"companyName"`
	Sector      string `db:"sector" json:"sector"`
	Exchange    string `db:"exchange" json:"exchange"`
}
