package marketdata

import "context"

// Source tags reported with every lookup result. Tools propagate these
// into tool results so the caller can distinguish live data from a cache.
const (
	SourcePostgres = "postgres"
	SourceCache    = "cache"
)

// Repository is the data lookup service consumed by the agent tools.
// Every method returns the source tag the data actually came from.
type Repository interface {
	GetQuote(ctx context.Context, ticker string) (*Quote, string, error)
	GetFundamentals(ctx context.Context, ticker string) (*Fundamentals, string, error)
	GetStatements(ctx context.Context, ticker, period string, limit int) ([]Statement, string, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, string, error)
}
