package insights

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseInsightResponse extracts the flat ticker -> commentary mapping from a
// raw model response. Models routinely wrap the JSON in markdown fences or
// surround it with prose despite instructions, so the parser takes the
// substring from the first '{' to the last '}' before decoding. Nested or
// non-string values are a parse failure, as is an empty object.
func ParseInsightResponse(raw string) (map[string]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse response as flat mapping: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response mapping is empty")
	}

	return out, nil
}
