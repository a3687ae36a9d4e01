package market

import (
	"context"

	"dexter/internal/tools"
	"dexter/pkg/errors"
)

// NewSearchStocksTool returns a tool that searches the company index.
func NewSearchStocksTool(deps Deps) tools.Tool {
	schema := tools.ArgSchema{Fields: []tools.ArgField{
		{Name: "query", Type: "string", Required: true, Description: "Free-text ticker or company name"},
		{Name: "limit", Type: "int", Required: false, Description: "Max hits, default 10"},
	}}

	return tools.New("search_stocks", "Search companies by ticker or name", schema, func(ctx context.Context, args map[string]interface{}) (*tools.Result, error) {
		query := tools.StringArg(args, "query")
		if query == "" {
			return nil, errors.Wrap(errors.ErrArgValidation, "search_stocks: query is required")
		}
		limit := tools.IntArg(args, "limit", 10)

		deps.Log.Debugf("Tool search_stocks: %q limit=%d", query, limit)

		hits, source, err := deps.Repo.Search(ctx, query, limit)
		if err != nil {
			return nil, errors.Wrapf(err, "search_stocks %q", query)
		}

		results := make([]map[string]interface{}, 0, len(hits))
		for _, h := range hits {
			results = append(results, map[string]interface{}{
				"ticker":      h.Ticker,
				"companyName": h.CompanyName,
				"sector":      h.Sector,
				"exchange":    h.Exchange,
			})
		}

		return &tools.Result{
			Source: source,
			Payload: map[string]interface{}{
				"query":   query,
				"results": results,
			},
		}, nil
	})
}
