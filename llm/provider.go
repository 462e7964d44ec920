// Package llm defines the structured-output provider contract — a
// pure function from (prompt, schema) to a schema instance or an
// error — and the bounded-fan-out facade that invokes agents across
// it.
package llm

import "context"

// Request is one structured-output call: a system prompt, a user
// prompt, and the schema the response must conform to. Schema is
// provider-specific (JSON Schema, a Go struct pointer to unmarshal
// into, etc.) — Provider implementations agree on its shape with
// their caller.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Schema       any
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Provider is a structured-output chat provider, selectable per
// council.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Response is the raw structured fields a Provider extracts from the
// model before agent-side normalization (agents.NormalizeSignal).
// Field is whichever of action/signal/recommendation the model used.
type Response struct {
	Field       string
	Confidence  float64
	Reasoning   string
	Leverage    *int
	StopLoss    *string
	EntryPrice  *string
	TakeProfits []TakeProfitField
	PositionSize *string
}

// TakeProfitField is a raw take-profit leg before decimal parsing.
type TakeProfitField struct {
	Price    string
	Quantity string
}
