package market

import (
	"dexter/internal/domain/marketdata"
	"dexter/internal/tools"
	"dexter/pkg/logger"
)

// Deps carries shared dependencies for the market data tools.
type Deps struct {
	Repo marketdata.Repository
	Log  *logger.Logger
}

// RegisterAll registers every market data tool with the registry.
func RegisterAll(r *tools.Registry, deps Deps) {
	if deps.Log == nil {
		deps.Log = logger.Get().With("component", "market_tools")
	}

	r.Register(NewGetQuoteTool(deps))
	r.Register(NewGetFundamentalsTool(deps))
	r.Register(NewGetStatementsTool(deps))
	r.Register(NewSearchStocksTool(deps))
}
