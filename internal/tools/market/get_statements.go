package market

import (
	"context"

	"dexter/internal/tools"
	"dexter/pkg/errors"
)

// NewGetStatementsTool returns a tool that fetches recent income statements.
func NewGetStatementsTool(deps Deps) tools.Tool {
	schema := tools.ArgSchema{Fields: []tools.ArgField{
		{Name: "ticker", Type: "string", Required: true, Description: "Stock ticker symbol"},
		{Name: "period", Type: "string", Required: false, Description: `"annual" (default) or "quarterly"`},
		{Name: "limit", Type: "int", Required: false, Description: "Number of statements, default 4"},
	}}

	return tools.New("get_financial_statements", "Fetch recent income statements for a company", schema, func(ctx context.Context, args map[string]interface{}) (*tools.Result, error) {
		ticker := tools.StringArg(args, "ticker")
		if ticker == "" {
			return nil, errors.Wrap(errors.ErrArgValidation, "get_financial_statements: ticker is required")
		}

		period := tools.StringArg(args, "period")
		if period == "" {
			period = "annual"
		}
		limit := tools.IntArg(args, "limit", 4)

		deps.Log.Debugf("Tool get_financial_statements: %s period=%s limit=%d", ticker, period, limit)

		rows, source, err := deps.Repo.GetStatements(ctx, ticker, period, limit)
		if err != nil {
			return nil, errors.Wrapf(err, "get_financial_statements %s", ticker)
		}

		statements := make([]map[string]interface{}, 0, len(rows))
		for _, s := range rows {
			statements = append(statements, map[string]interface{}{
				"fiscalDate":      s.FiscalDate,
				"revenue":         s.Revenue,
				"costOfRevenue":   s.CostOfRevenue,
				"grossProfit":     s.GrossProfit,
				"operatingIncome": s.OperatingIncome,
				"netIncome":       s.NetIncome,
			})
		}

		return &tools.Result{
			Source: source,
			Payload: map[string]interface{}{
				"ticker":     ticker,
				"period":     period,
				"statements": statements,
			},
		}, nil
	})
}
