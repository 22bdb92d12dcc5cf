package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiagnosis(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Diagnosis
		err   bool
	}{
		{"plain", `{"problemIdentification":"p","suggestedSolutions":"s"}`, Diagnosis{"p", "s"}, false},
		{"fenced", "```json\n{\"problemIdentification\":\"p\",\"suggestedSolutions\":\"s\"}\n```", Diagnosis{"p", "s"}, false},
		{"prose around json", "Sure! {\"problemIdentification\":\"p\",\"suggestedSolutions\":\"s\"} Hope it helps.", Diagnosis{"p", "s"}, false},
		{"empty object", `{}`, Diagnosis{}, true},
		{"not json", "no idea", Diagnosis{}, true},
		{"empty", "", Diagnosis{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDiagnosis(tt.reply)
			if tt.err {
				assert.ErrorIs(t, err, ErrEmptyReply)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{Temperature: 21.55, Humidity: 40, AdditionalContext: "  basement  "})
	assert.Contains(t, p, "Temperature: 21.6°C")
	assert.Contains(t, p, "Humidity: 40.0%")
	assert.Contains(t, p, "Water Leakage: No")
	assert.Contains(t, p, "Additional context: basement")

	assert.NotContains(t, BuildPrompt(Request{}), "Additional context")
}

func TestOpenAICompleter(t *testing.T) {
	var got struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"problemIdentification\":\"p\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test", MaxTokens: 100})
	reply, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"problemIdentification":"p"}`, reply)

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestOpenAICompleterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyReply)
}
