package llm

import (
	"context"
)

// FragmentHandler receives one incremental piece of generated text.
// Returning an error aborts the stream; the provider stops generating.
type FragmentHandler func(fragment string) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any text-generation backend
type LLMProvider interface {
	// Generate sends a single prompt to the model and returns the full answer
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// GenerateStream sends a single prompt and delivers the answer as a
	// finite sequence of fragments through fn, in generation order.
	// Returns only after the last fragment has been delivered or an error
	// occurred; a nil return means the stream completed.
	GenerateStream(ctx context.Context, prompt string, fn FragmentHandler, options ...Option) error
}
