package domain

import "context"

// ChatCompleter is the shared reasoning-model contract used by the query
// router and the answer generator.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries one prompt to the reasoning model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	// ForceJSON asks the provider for a strict JSON object response
	// (used by the router; callers still parse defensively).
	ForceJSON bool
}
