package ai

import "context"

// Provider is a text-generation backend. Callers bound every request with a
// context deadline and treat any error as "use the fallback".
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
