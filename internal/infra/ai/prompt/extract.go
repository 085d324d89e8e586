package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
)

// ExtractJSON strips markdown fencing and returns the text between the first
// '{' and the last '}'.
func ExtractJSON(raw string) (string, error) {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in model output", analysis.ErrUnparsable)
	}
	return s[start : end+1], nil
}

// ParseResult turns raw model output into a validated reading.
func ParseResult(raw string) (analysis.Result, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return analysis.Result{}, err
	}
	var r analysis.Result
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return analysis.Result{}, fmt.Errorf("%w: %v", analysis.ErrUnparsable, err)
	}
	if err := r.Validate(); err != nil {
		return analysis.Result{}, err
	}
	return r, nil
}
