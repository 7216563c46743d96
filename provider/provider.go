package provider

import "context"

// Provider is the generation + embedding capability pair the assistant
// consumes. Both calls may fail or time out; callers degrade gracefully.
type Provider interface {
	// Generate produces free text from a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// CreateEmbedding returns one fixed-dimension vector per input text.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
