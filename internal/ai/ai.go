// Package ai wraps the generative-AI providers used for troubleshooting advice.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Provider names accepted from clients.
const (
	ProviderGemini  = "gemini"
	ProviderChatGPT = "chatgpt"
)

// ErrEmptyReply is returned when a provider answers with nothing usable.
var ErrEmptyReply = errors.New("AI failed to generate a response")

// Request is the sensor context a user asks advice about.
type Request struct {
	Temperature       float64 `json:"temperature"`
	Humidity          float64 `json:"humidity"`
	WaterLeakage      bool    `json:"waterLeakage"`
	AdditionalContext string  `json:"additionalContext,omitempty"`
}

// Diagnosis is the structured answer returned to clients.
type Diagnosis struct {
	ProblemIdentification string `json:"problemIdentification"`
	SuggestedSolutions    string `json:"suggestedSolutions"`
}

// Completer sends one system+user prompt pair to a model and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const systemPrompt = `You are an expert IoT device troubleshooter.
Based on the provided sensor data, identify potential problems and suggest solutions.
Respond only with a JSON object of the form {"problemIdentification": string, "suggestedSolutions": string}.`

// SystemPrompt returns the instruction sent with every troubleshooting request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt renders the user message for req.
func BuildPrompt(req Request) string {
	leak := "No"
	if req.WaterLeakage {
		leak = "Yes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Temperature: %.1f°C\n", req.Temperature)
	fmt.Fprintf(&b, "Humidity: %.1f%%\n", req.Humidity)
	fmt.Fprintf(&b, "Water Leakage: %s\n", leak)
	if ctx := strings.TrimSpace(req.AdditionalContext); ctx != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", ctx)
	}
	return b.String()
}

// ParseDiagnosis decodes a model reply, tolerating markdown code fences around the JSON.
func ParseDiagnosis(reply string) (Diagnosis, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var d Diagnosis
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Diagnosis{}, fmt.Errorf("%w: %v", ErrEmptyReply, err)
	}
	if strings.TrimSpace(d.ProblemIdentification) == "" && strings.TrimSpace(d.SuggestedSolutions) == "" {
		return Diagnosis{}, ErrEmptyReply
	}
	return d, nil
}
