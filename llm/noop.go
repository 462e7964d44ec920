package llm

import "context"

// HoldProvider is the zero-configuration Provider: it always returns a
// hold recommendation at zero confidence. Real providers (structured-
// output chat models) are an external collaborator per the system's
// interface contract; HoldProvider exists so a council is runnable
// before any real provider is wired in, not as a stand-in for one.
type HoldProvider struct{}

// Complete implements Provider.
func (HoldProvider) Complete(ctx context.Context, req Request) (Response, error) {
	return Response{Field: "HOLD", Confidence: 0, Reasoning: "no LLM provider configured"}, nil
}

var _ Provider = HoldProvider{}
