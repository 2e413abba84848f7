package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"feed-report/models"
	"feed-report/providers"
)

// SystemPrompt legt Rolle und HTML-Struktur des Nährwertberichts fest.
const SystemPrompt = `You are a professional animal feed nutritionist and agricultural consultant. Given a list of ingredients and weights, return the following in HTML format:

1. A section titled: "Nutritional Value of [total weight] Mix"
   - Display a table with: Calories, Carbohydrates, Sugars, Fiber, Protein, Fat, Water

2. A section titled: "Vitamins & Minerals"
   - Display a table with: Folate, Vitamin C, Potassium, Manganese, Iron, Magnesium, etc.

3. A section titled: "Farmer's Nutritional Feedback"
   - Provide a short paragraph (1-3 sentences) evaluating if the mix is nutritionally balanced for general livestock.
   - If nutrients are lacking or excessive, suggest specific improvements (e.g., "Add more protein source", "Too much sugar").

Return only HTML (no Markdown, no extra text). Use <h2> for section titles and semantic <table> for data.`

// FormatIngredients erzeugt pro Zutat eine Zeile "<name> - <menge>".
func FormatIngredients(ingredients []models.Ingredient) string {
	lines := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, fmt.Sprintf("%s - %s", ing.Name, ing.Quantity))
	}
	return strings.Join(lines, "\n")
}

// BuildUserPrompt baut die Nutzer-Nachricht für eine Mischung.
func BuildUserPrompt(mix *models.Mix) string {
	return "Ingredients:\n" + FormatIngredients(mix.Ingredients)
}

// ReportGenerator lässt für eine Mischung einen HTML-Nährwertbericht erzeugen.
type ReportGenerator struct {
	Mixes     *MixService
	Completer providers.Completer
	Logger    *zap.Logger
}

// NewReportGenerator erstellt eine neue Instanz des ReportGenerator.
func NewReportGenerator(mixes *MixService, completer providers.Completer, logger *zap.Logger) *ReportGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportGenerator{Mixes: mixes, Completer: completer, Logger: logger}
}

// Generate lädt die Mischung, fragt das Modell genau einmal an und gibt dessen
// Antwort unverändert zurück. Das HTML wird weder bereinigt noch geprüft.
func (g *ReportGenerator) Generate(ctx context.Context, mixID string) (string, error) {
	mix, err := g.Mixes.GetMix(ctx, mixID)
	if err != nil {
		return "", err
	}

	log := g.Logger.With(zap.String("mix_id", mix.ID), zap.String("provider", g.Completer.Name()))
	log.Info("Generating nutrition report", zap.Int("ingredients", len(mix.Ingredients)))

	html, err := g.Completer.Complete(ctx, SystemPrompt, BuildUserPrompt(mix))
	if err != nil {
		log.Error("Completion request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrUpstream, g.Completer.Name(), err)
	}
	if strings.TrimSpace(html) == "" {
		log.Error("Completion returned empty report")
		return "", fmt.Errorf("%w: %s returned an empty report", ErrUpstream, g.Completer.Name())
	}

	log.Info("Nutrition report generated", zap.Int("html_len", len(html)))
	return html, nil
}
