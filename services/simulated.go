package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SimulatedLLM is the offline stand-in for the live Gemini client. It echoes
// a deterministic commentary per ticker so report layout can be iterated on
// without spending quota. Prompts are expected to carry the orchestrator's
// "Tickers:" header line.
type SimulatedLLM struct{}

// NewSimulatedLLM creates a new SimulatedLLM
func NewSimulatedLLM() *SimulatedLLM {
	return &SimulatedLLM{}
}

// Complete returns a canned JSON mapping for the tickers named in the prompt
func (s *SimulatedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := make(map[string]string)
	for _, line := range strings.Split(prompt, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Tickers:")
		if !ok {
			continue
		}
		for _, ticker := range strings.Split(rest, ",") {
			ticker = strings.TrimSpace(ticker)
			if ticker != "" {
				out[ticker] = fmt.Sprintf("[模擬] %s 模擬分析內容，僅供排版測試。", ticker)
			}
		}
		break
	}

	if len(out) == 0 {
		return "{}", nil
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal simulated response: %w", err)
	}
	return string(raw), nil
}
