package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

var today = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestExtractFencedJSON(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"date\":\"2024-01-01\",\"category\":\"Food\",\"amount\":12.5,\"description\":\"lunch\"}\n```"}
	x := NewExtractor(gen)

	parsed, err := x.Extract(context.Background(), "lunch for 12.50", today)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", parsed.Date)
	assert.Equal(t, "Food", parsed.Category)
	assert.Equal(t, 12.5, parsed.Amount)
	assert.Equal(t, "lunch", parsed.Description)
}

func TestExtractPlainJSON(t *testing.T) {
	gen := &fakeGenerator{reply: `{"date":"2024-01-15","category":"Travel","amount":40,"description":"taxi"}`}
	x := NewExtractor(gen)

	parsed, err := x.Extract(context.Background(), "taxi 40", today)
	require.NoError(t, err)
	assert.Equal(t, "Travel", parsed.Category)
	assert.Equal(t, 40.0, parsed.Amount)
}

func TestExtractNonJSONReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Sorry, I cannot help with that."}
	x := NewExtractor(gen)

	_, err := x.Extract(context.Background(), "lunch", today)
	require.Error(t, err)

	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr), "error must be an ExtractError, got %T", err)
	assert.Contains(t, xerr.Error(), "not valid JSON")
}

func TestExtractGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	x := NewExtractor(gen)

	_, err := x.Extract(context.Background(), "lunch", today)
	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr))
	assert.Contains(t, xerr.Error(), "AI request failed")
}

func TestExtractEmptyReply(t *testing.T) {
	gen := &fakeGenerator{reply: "``` ```"}
	x := NewExtractor(gen)

	_, err := x.Extract(context.Background(), "lunch", today)
	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr))
}

func TestExtractNoGeneratorConfigured(t *testing.T) {
	x := NewExtractor(nil)

	_, err := x.Extract(context.Background(), "lunch", today)
	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr))
	assert.Contains(t, xerr.Error(), "not configured")
}

func TestExtractEmptyInput(t *testing.T) {
	x := NewExtractor(&fakeGenerator{})

	_, err := x.Extract(context.Background(), "   ", today)
	var xerr *ExtractError
	require.True(t, errors.As(err, &xerr))
}

func TestBuildPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: `{"date":"2024-01-15","category":"Other","amount":1,"description":"x"}`}
	x := NewExtractor(gen)

	_, err := x.Extract(context.Background(), "coffee yesterday", today)
	require.NoError(t, err)

	prompt := gen.lastPrompt
	assert.Contains(t, prompt, "Current Date: 2024-01-15")
	assert.Contains(t, prompt, "Food, Travel, Bills, Shopping, Other")
	assert.Contains(t, prompt, `"coffee yesterday"`)
	assert.Contains(t, prompt, "Return ONLY a JSON object")
	assert.Contains(t, prompt, "If no date is mentioned, use Current Date")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	a := BuildPrompt("lunch", today)
	b := BuildPrompt("lunch", today)
	assert.Equal(t, a, b)
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"", ""},
	}
	for i, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestExtractErrorMessageIsHumanReadable(t *testing.T) {
	err := &ExtractError{Reason: "AI request failed", Err: errors.New("401 unauthorized")}
	if !strings.Contains(err.Error(), "AI request failed") ||
		!strings.Contains(err.Error(), "401") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
