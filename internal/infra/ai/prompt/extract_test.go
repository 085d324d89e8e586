package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
)

const reading = `{
  "richLookalike": "이건희",
  "matchRate": "94",
  "animalType": "호랑이",
  "potentialWealth": "50억 ~ 1000억",
  "summary": "재물이 스스로 걸어 들어오는 상",
  "detailedAnalysis": "눈빛이 형형하다"
}`

func TestExtractJSON(t *testing.T) {
	cases := map[string]struct{ in, want string }{
		"plain":         {`{"a":1}`, `{"a":1}`},
		"fenced":        {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"bare fence":    {"```\n{\"a\":1}\n```", `{"a":1}`},
		"prose around":  {"Here is the reading:\n{\"a\":1}\nGood luck!", `{"a":1}`},
		"nested braces": {`x {"a":{"b":1}} y`, `{"a":{"b":1}}`},
	}
	for name, tc := range cases {
		out, err := ExtractJSON(tc.in)
		require.NoError(t, err, name)
		assert.Equal(t, tc.want, out, name)
	}

	_, err := ExtractJSON("sorry, I cannot read faces")
	assert.ErrorIs(t, err, analysis.ErrUnparsable)
	_, err = ExtractJSON("} backwards {")
	assert.ErrorIs(t, err, analysis.ErrUnparsable)
}

func TestParseResult(t *testing.T) {
	r, err := ParseResult("```json\n" + reading + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "이건희", r.RichLookalike)
	assert.Equal(t, analysis.MatchRate(94), r.MatchRate)
	assert.Equal(t, "호랑이", r.AnimalType)

	_, err = ParseResult(`{"richLookalike": "이건희", "matchRate": 90,}`)
	assert.ErrorIs(t, err, analysis.ErrUnparsable)

	_, err = ParseResult(`{"richLookalike": "이건희", "matchRate": 90}`)
	assert.ErrorIs(t, err, analysis.ErrUnparsable)
}

func TestGetSystemPrompt_CarriesBounds(t *testing.T) {
	p := GetSystemPrompt(85, 99)
	assert.Contains(t, p, "integer between 85 and 99")
	assert.Contains(t, p, "detailedAnalysis")
}
