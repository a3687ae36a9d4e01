package market

import (
	"context"
	"time"

	"dexter/internal/tools"
	"dexter/pkg/errors"
)

// NewGetQuoteTool returns a tool that fetches the latest price snapshot.
func NewGetQuoteTool(deps Deps) tools.Tool {
	schema := tools.ArgSchema{Fields: []tools.ArgField{
		{Name: "ticker", Type: "string", Required: true, Description: "Stock ticker symbol, e.g. NVDA"},
	}}

	return tools.New("get_quote", "Fetch the current stock price with daily change", schema, func(ctx context.Context, args map[string]interface{}) (*tools.Result, error) {
		ticker := tools.StringArg(args, "ticker")
		if ticker == "" {
			return nil, errors.Wrap(errors.ErrArgValidation, "get_quote: ticker is required")
		}

		deps.Log.Debugf("Tool get_quote: %s", ticker)

		quote, source, err := deps.Repo.GetQuote(ctx, ticker)
		if err != nil {
			return nil, errors.Wrapf(err, "get_quote %s", ticker)
		}

		return &tools.Result{
			Source: source,
			Payload: map[string]interface{}{
				"ticker":        quote.Ticker,
				"companyName":   quote.CompanyName,
				"price":         quote.Price.InexactFloat64(),
				"change":        quote.Change.InexactFloat64(),
				"changePercent": quote.ChangePercent.InexactFloat64(),
				"volume":        quote.Volume,
				"marketCap":     quote.MarketCap,
				"updatedAt":     quote.UpdatedAt.Format(time.RFC3339),
			},
		}, nil
	})
}
