package openrouter

// Message ist eine einzelne Chat-Nachricht.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest ist der Body für POST /chat/completions.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse ist die Top-Level-Struktur der Chat-Completions-Antwort.
type ChatResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice enthält eine Antwortvariante des Modells.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// APIError ist das Fehlerobjekt, das OpenRouter bei Fehlern zurückgibt.
type APIError struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}
