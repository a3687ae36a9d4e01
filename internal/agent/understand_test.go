package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_TickerSymbol(t *testing.T) {
	e := NewExtractor()

	u := e.Understand(Query{Text: "What is the price of NVDA?"})

	assert.Equal(t, IntentQuote, u.Intent)
	assert.Equal(t, "NVDA", u.Ticker())
	assert.Equal(t, "What is the price of NVDA?", u.Entities["query"])
}

func TestExtractor_CompanyNameAlias(t *testing.T) {
	e := NewExtractor()

	u := e.Understand(Query{Text: "show me fundamentals for nvidia"})

	assert.Equal(t, IntentFundamentals, u.Intent)
	assert.Equal(t, "NVDA", u.Ticker())
}

func TestExtractor_StopwordsNotTickers(t *testing.T) {
	e := NewExtractor()

	u := e.Understand(Query{Text: "WHAT IS THE best dividend stock"})

	assert.Empty(t, u.Ticker())
}

func TestExtractor_ShoutedWordsNotTickers(t *testing.T) {
	e := NewExtractor()

	// Uppercase used for emphasis is not a symbol.
	u := e.Understand(Query{Text: "SHOW ME tech stocks"})
	assert.Empty(t, u.Ticker())

	// In an all-caps query no bare token is trusted; the planner's search
	// fallback picks up the slack.
	u = e.Understand(Query{Text: "WHICH DIVIDEND STOCK IS GOOD"})
	assert.Empty(t, u.Ticker())
}

func TestExtractor_DollarPrefixedTicker(t *testing.T) {
	e := NewExtractor()

	u := e.Understand(Query{Text: "how is $tsla doing today"})

	assert.Equal(t, "TSLA", u.Ticker())
}

func TestExtractor_IntentClassification(t *testing.T) {
	e := NewExtractor()

	cases := []struct {
		text string
		want Intent
	}{
		{"income statement for AAPL", IntentStatement},
		{"AAPL market cap and pe ratio", IntentFundamentals},
		{"how much is TSLA trading at", IntentQuote},
		{"find semiconductor companies", IntentSearch},
		{"tell me about MSFT", IntentGeneric},
	}

	for _, tc := range cases {
		u := e.Understand(Query{Text: tc.text})
		assert.Equal(t, tc.want, u.Intent, "text: %s", tc.text)
	}
}

func TestExtractor_StatementBeatsFundamentals(t *testing.T) {
	e := NewExtractor()

	// "net income" and "margin" both appear; the statement keywords win.
	u := e.Understand(Query{Text: "net income and margin trends for AAPL"})

	assert.Equal(t, IntentStatement, u.Intent)
}

func TestExtractor_AlwaysCarriesQuery(t *testing.T) {
	e := NewExtractor()

	u := e.Understand(Query{Text: "  anything at all  "})

	assert.Equal(t, "anything at all", u.Entities["query"])
}
