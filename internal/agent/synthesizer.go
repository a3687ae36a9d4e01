package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"dexter/internal/adapters/ai"
	"dexter/pkg/logger"
)

const systemPrompt = `You are Dexter, a financial data assistant.
Answer the user's question using ONLY the tool results provided.
Every figure you state must come from those results. If a metric is
missing or a tool reported an error, say that the data is unavailable
instead of inventing a number. Keep the answer concise and concrete.`

// Synthesizer turns collected tool results into a natural-language
// answer. It assembles the grounding context and invokes the external
// generation capability; it performs no other business logic.
type Synthesizer struct {
	log *logger.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{log: logger.Get().With("component", "synthesizer")}
}

// Stream invokes the generator and returns its chunk stream grounded in
// the tool results.
func (s *Synthesizer) Stream(ctx context.Context, gen ai.Generator, providerModel string, u Understanding, results []ToolResult) (<-chan ai.Chunk, <-chan error) {
	return gen.GenerateStream(ctx, s.request(providerModel, u, results))
}

// Generate invokes the generator in buffered mode.
func (s *Synthesizer) Generate(ctx context.Context, gen ai.Generator, providerModel string, u Understanding, results []ToolResult) (string, *ai.Usage, error) {
	return gen.Generate(ctx, s.request(providerModel, u, results))
}

func (s *Synthesizer) request(providerModel string, u Understanding, results []ToolResult) ai.GenerateRequest {
	var sb strings.Builder

	sb.WriteString("Question: ")
	sb.WriteString(u.Entities["query"])
	sb.WriteString("\n\nTool results:\n")

	for _, r := range results {
		line := map[string]interface{}{
			"tool":    r.ToolName,
			"success": r.Success,
		}
		if r.Success {
			line["source"] = r.Source
			line["data"] = r.Payload
		} else {
			line["error"] = r.Error
		}
		encoded, err := json.Marshal(line)
		if err != nil {
			s.log.Warnf("Failed to encode tool result for prompt: %v", err)
			continue
		}
		sb.Write(encoded)
		sb.WriteString("\n")
	}

	if len(results) == 0 {
		sb.WriteString("(no tool results were gathered)\n")
	}

	return ai.GenerateRequest{
		Model:       providerModel,
		System:      systemPrompt,
		Prompt:      sb.String(),
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// Fallback produces a best-effort textual summary of raw tool results,
// used when the generation capability fails after data was gathered.
func (s *Synthesizer) Fallback(u Understanding, results []ToolResult) string {
	var lines []string

	for _, r := range results {
		if !r.Success {
			lines = append(lines, fmt.Sprintf("%s: data unavailable (%s)", r.ToolName, r.Error))
			continue
		}
		lines = append(lines, summarizePayload(r))
	}

	if len(lines) == 0 {
		return "No data could be retrieved for this question."
	}

	return "Here is the raw data that was retrieved:\n" + strings.Join(lines, "\n")
}

func summarizePayload(r ToolResult) string {
	p := r.Payload

	switch r.ToolName {
	case toolGetQuote:
		return fmt.Sprintf("%s (%s): $%.2f, %+.2f%% today, volume %s [source: %s]",
			str(p, "ticker"), str(p, "companyName"),
			num(p, "price"), num(p, "changePercent"),
			humanize.Comma(integer(p, "volume")), r.Source)

	case toolGetFundamentals:
		return fmt.Sprintf("%s fundamentals: market cap $%s, P/E %.1f, EPS $%.2f, TTM revenue $%s [source: %s]",
			str(p, "ticker"),
			humanize.Comma(integer(p, "marketCap")),
			num(p, "peRatio"), num(p, "eps"),
			humanize.Comma(integer(p, "revenueTTM")), r.Source)

	case toolGetStatements:
		statements, _ := p["statements"].([]map[string]interface{})
		if len(statements) > 0 {
			latest := statements[0]
			return fmt.Sprintf("%s latest %s statement (%s): revenue $%s, net income $%s [source: %s]",
				str(p, "ticker"), str(p, "period"), str(latest, "fiscalDate"),
				humanize.Comma(integer(latest, "revenue")),
				humanize.Comma(integer(latest, "netIncome")), r.Source)
		}
		return fmt.Sprintf("%s: statements retrieved [source: %s]", str(p, "ticker"), r.Source)

	case toolSearchStocks:
		hits, _ := p["results"].([]map[string]interface{})
		names := make([]string, 0, len(hits))
		for _, h := range hits {
			names = append(names, str(h, "ticker"))
		}
		return fmt.Sprintf("search %q matched: %s [source: %s]",
			str(p, "query"), strings.Join(names, ", "), r.Source)
	}

	encoded, _ := json.Marshal(p)
	return fmt.Sprintf("%s: %s [source: %s]", r.ToolName, encoded, r.Source)
}

func str(p map[string]interface{}, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func num(p map[string]interface{}, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func integer(p map[string]interface{}, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
