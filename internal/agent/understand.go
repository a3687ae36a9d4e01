package agent

import (
	"regexp"
	"strings"

	"dexter/pkg/logger"
)

// Extractor maps raw user text to a normalized intent plus structured
// entities. Pure text analysis, no side effects.
type Extractor struct {
	log *logger.Logger
}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{log: logger.Get().With("component", "extractor")}
}

var (
	tickerPattern       = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	dollarTickerPattern = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
)

// Uppercase words that look like tickers but are not.
var tickerStopwords = map[string]bool{
	"IS": true, "THE": true, "WHAT": true, "HOW": true, "SHOW": true,
	"TELL": true, "GIVE": true, "FIND": true, "LIST": true, "BUY": true,
	"SELL": true, "WHO": true, "WHY": true, "WHEN": true, "NOW": true,
	"GET": true, "FOR": true, "OF": true, "IN": true, "ON": true, "AND": true,
	"TO": true, "MY": true, "ME": true, "US": true, "PE": true, "EPS": true,
	"TTM": true, "CEO": true, "IPO": true, "ETF": true, "USD": true, "VS": true,
}

// Well-known company names resolved to tickers when the user writes the
// name instead of the symbol.
var companyAliases = map[string]string{
	"nvidia":    "NVDA",
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"tesla":     "TSLA",
	"amazon":    "AMZN",
	"alphabet":  "GOOGL",
	"google":    "GOOGL",
	"meta":      "META",
	"netflix":   "NFLX",
	"broadcom":  "AVGO",
	"intel":     "INTC",
	"amd":       "AMD",
}

var intentKeywords = []struct {
	intent Intent
	words  []string
}{
	{IntentStatement, []string{"income statement", "revenue breakdown", "financial statement", "financials", "quarterly revenue", "annual revenue", "earnings report", "net income"}},
	{IntentFundamentals, []string{"fundamentals", "valuation", "market cap", "p/e", "pe ratio", "eps", "dividend", "margin", "profitability"}},
	{IntentQuote, []string{"price", "quote", "trading at", "worth", "stock price", "how much is", "share price"}},
	{IntentSearch, []string{"search", "find", "list", "which companies", "which stocks", "screener", "similar to"}},
}

// Understand extracts intent and entities from the query. A missing
// ticker for a ticker-requiring intent is not an error here; the planner
// handles the gap.
func (e *Extractor) Understand(q Query) Understanding {
	text := q.Text
	lower := strings.ToLower(text)

	entities := map[string]string{
		// Raw text is always carried for search fallbacks.
		"query": strings.TrimSpace(text),
	}

	if ticker := extractTicker(text, lower); ticker != "" {
		entities["ticker"] = ticker
	}

	intent := classifyIntent(lower)

	e.log.Debugf("Understood query %s: intent=%s ticker=%q", q.ID, intent, entities["ticker"])

	return Understanding{
		Intent:   intent,
		Entities: entities,
	}
}

func extractTicker(text, lower string) string {
	// $-prefixed symbols are unambiguous and win over everything else.
	if m := dollarTickerPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}

	// A bare uppercase token only counts in mixed-case text; in a shouted
	// query every word looks like a symbol.
	if strings.ToUpper(text) != text {
		for _, match := range tickerPattern.FindAllString(text, -1) {
			if !tickerStopwords[match] {
				return match
			}
		}
	}

	for name, ticker := range companyAliases {
		if strings.Contains(lower, name) {
			return ticker
		}
	}

	return ""
}

func classifyIntent(lower string) Intent {
	for _, group := range intentKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.intent
			}
		}
	}
	return IntentGeneric
}
