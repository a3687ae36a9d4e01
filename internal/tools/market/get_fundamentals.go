package market

import (
	"context"
	"time"

	"dexter/internal/tools"
	"dexter/pkg/errors"
)

// NewGetFundamentalsTool returns a tool that fetches headline valuation metrics.
func NewGetFundamentalsTool(deps Deps) tools.Tool {
	schema := tools.ArgSchema{Fields: []tools.ArgField{
		{Name: "ticker", Type: "string", Required: true, Description: "Stock ticker symbol, e.g. AAPL"},
	}}

	return tools.New("get_fundamentals", "Fetch valuation fundamentals (market cap, P/E, EPS, margins)", schema, func(ctx context.Context, args map[string]interface{}) (*tools.Result, error) {
		ticker := tools.StringArg(args, "ticker")
		if ticker == "" {
			return nil, errors.Wrap(errors.ErrArgValidation, "get_fundamentals: ticker is required")
		}

		deps.Log.Debugf("Tool get_fundamentals: %s", ticker)

		f, source, err := deps.Repo.GetFundamentals(ctx, ticker)
		if err != nil {
			return nil, errors.Wrapf(err, "get_fundamentals %s", ticker)
		}

		return &tools.Result{
			Source: source,
			Payload: map[string]interface{}{
				"ticker":        f.Ticker,
				"companyName":   f.CompanyName,
				"marketCap":     f.MarketCap,
				"peRatio":       f.PERatio.InexactFloat64(),
				"eps":           f.EPS.InexactFloat64(),
				"dividendYield": f.DividendYield.InexactFloat64(),
				"revenueTTM":    f.RevenueTTM,
				"netIncomeTTM":  f.NetIncomeTTM,
				"grossMargin":   f.GrossMargin.InexactFloat64(),
				"updatedAt":     f.UpdatedAt.Format(time.RFC3339),
			},
		}, nil
	})
}
