package core

import "context"

// Message represents a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options controls model behavior for a single call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the outcome of one provider call. A degraded completion carries
// human-readable fallback text in Text and the underlying reason in Failure.
type Completion struct {
	Text    string
	Failure string
}

// Degraded reports whether the provider call failed and Text is a fallback message.
func (c Completion) Degraded() bool {
	return c.Failure != ""
}

// Client is a provider-agnostic interface for the LLM operations the runner needs.
//
// Provider outages never surface as errors: they come back as degraded completions.
// A non-nil error means the client itself could not perform the call.
type Client interface {
	// ChatCompletion sends messages and returns the first choice's content.
	ChatCompletion(ctx context.Context, messages []Message, opts Options) (Completion, error)
	// ExecuteTask asks the model to carry out task in service of goal.
	ExecuteTask(ctx context.Context, goal, task string, opts Options) (Completion, error)
}
