// Package ai converts free-text expense descriptions into structured
// records through an external text-generation service. Every failure is
// contained here and surfaced as an *ExtractError; nothing past this
// boundary ever panics over a bad model reply.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outlay/internal/core"
)

// TextGenerator is the outbound boundary: one prompt in, raw text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ParsedExpense is the fixed-shape record the model is instructed to emit.
// Types beyond JSON well-formedness are the caller's job to validate.
type ParsedExpense struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// ExtractError carries a human-readable reason for a failed extraction.
type ExtractError struct {
	Reason string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ExtractError) Unwrap() error { return e.Err }

type Extractor struct {
	gen TextGenerator
}

func NewExtractor(gen TextGenerator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract sends freeText through the model and parses the reply as a
// ParsedExpense. One request, one attempt; any failure is terminal for
// this call and comes back as *ExtractError.
func (x *Extractor) Extract(ctx context.Context, freeText string, today time.Time) (ParsedExpense, error) {
	if x.gen == nil {
		return ParsedExpense{}, &ExtractError{Reason: "AI service is not configured"}
	}
	if strings.TrimSpace(freeText) == "" {
		return ParsedExpense{}, &ExtractError{Reason: "nothing to extract from empty input"}
	}

	prompt := BuildPrompt(freeText, today)

	raw, err := x.gen.Generate(ctx, prompt)
	if err != nil {
		return ParsedExpense{}, &ExtractError{Reason: "AI request failed", Err: err}
	}

	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return ParsedExpense{}, &ExtractError{Reason: "AI returned an empty reply"}
	}

	var parsed ParsedExpense
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.DebugContext(ctx, "Unparseable model reply", "reply", raw)
		return ParsedExpense{}, &ExtractError{Reason: "AI reply was not valid JSON", Err: err}
	}

	return parsed, nil
}

// BuildPrompt renders the deterministic instruction prompt: current date,
// the fixed vocabulary, the default-date and nearest-category rules, and
// the pure-JSON output requirement.
func BuildPrompt(freeText string, today time.Time) string {
	return fmt.Sprintf(`You are an API that converts natural language expense text into JSON.
Current Date: %s
Valid Categories: %s

Instructions:
1. Extract the amount, category, date, and description.
2. If no date is mentioned, use Current Date.
3. If the category does not strictly match the Valid Categories list, pick the closest one or use 'Other'.
4. Return ONLY a JSON object. Do not write markdown or explanations.

User Input: %q

Output Format:
{
    "date": "YYYY-MM-DD",
    "category": "String",
    "amount": Float,
    "description": "String"
}`, core.Today(today), strings.Join(core.Categories, ", "), freeText)
}

// StripCodeFences removes ```json / ``` markers the model sometimes wraps
// around its reply, then trims surrounding whitespace.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
