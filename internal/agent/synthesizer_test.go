package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizer_RequestCarriesToolResults(t *testing.T) {
	s := NewSynthesizer()
	u := understandingFor(IntentQuote, map[string]string{"query": "price of NVDA", "ticker": "NVDA"})

	results := []ToolResult{
		{ToolName: toolGetQuote, Success: true, Source: "postgres",
			Payload: map[string]interface{}{"ticker": "NVDA", "price": 100.5}},
		{ToolName: toolGetFundamentals, Success: false, Error: "tool call timeout"},
	}

	req := s.request("stub-v1", u, results)

	assert.Equal(t, "stub-v1", req.Model)
	assert.Contains(t, req.System, "unavailable")
	assert.Contains(t, req.Prompt, "price of NVDA")
	assert.Contains(t, req.Prompt, `"ticker":"NVDA"`)
	assert.Contains(t, req.Prompt, "tool call timeout")
}

func TestSynthesizer_RequestWithNoResults(t *testing.T) {
	s := NewSynthesizer()
	u := understandingFor(IntentGeneric, map[string]string{"query": "hello"})

	req := s.request("stub-v1", u, nil)

	assert.Contains(t, req.Prompt, "no tool results were gathered")
}

func TestSynthesizer_FallbackSummarizesQuote(t *testing.T) {
	s := NewSynthesizer()
	u := understandingFor(IntentQuote, map[string]string{"ticker": "NVDA"})

	results := []ToolResult{{
		ToolName: toolGetQuote, Success: true, Source: "cache",
		Payload: map[string]interface{}{
			"ticker":        "NVDA",
			"companyName":   "NVIDIA Corporation",
			"price":         100.50,
			"changePercent": 2.5,
			"volume":        int64(12345678),
		},
	}}

	text := s.Fallback(u, results)

	assert.Contains(t, text, "NVDA")
	assert.Contains(t, text, "$100.50")
	assert.Contains(t, text, "+2.50%")
	assert.Contains(t, text, "12,345,678")
	assert.Contains(t, text, "cache")
}

func TestSynthesizer_FallbackMarksFailuresUnavailable(t *testing.T) {
	s := NewSynthesizer()
	u := understandingFor(IntentFundamentals, map[string]string{"ticker": "NVDA"})

	results := []ToolResult{{
		ToolName: toolGetFundamentals, Success: false, Error: "upstream unavailable",
	}}

	text := s.Fallback(u, results)

	assert.Contains(t, text, "data unavailable")
	assert.Contains(t, text, "upstream unavailable")
}

func TestSynthesizer_FallbackWithNothing(t *testing.T) {
	s := NewSynthesizer()

	text := s.Fallback(understandingFor(IntentGeneric, nil), nil)

	assert.Equal(t, "No data could be retrieved for this question.", text)
}
