package providers

import "context"

// Completer ist das Interface, das jeder Sprachmodell-Anbieter implementieren muss.
type Completer interface {
	// Complete schickt System- und Nutzer-Prompt ab und liefert den rohen Antworttext.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "openrouter").
	Name() string
}
