// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LocalProvider is a deterministic offline fallback used when no API key is
// configured. It emits a schema-valid reply with empty extraction arrays so
// the rest of the pipeline can be exercised without network access.
type LocalProvider struct{}

// NewLocalProvider constructs the offline provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Chat echoes the last message inside a minimal valid structured reply.
func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := strings.TrimSpace(messages[len(messages)-1].Content)
	payload := map[string]interface{}{
		"reply": "[local-stub] " + last,
		"extractions": map[string]interface{}{
			"systems":             []interface{}{},
			"process_steps":       []interface{}{},
			"gaps":                []interface{}{},
			"journey_touchpoints": []interface{}{},
			"sme_updates":         map[string]interface{}{},
		},
		"conflicts_detected": []interface{}{},
		"open_questions":     []interface{}{},
		"conversation_state": map[string]interface{}{"current_stage": "discovery"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Name identifies the provider.
func (l *LocalProvider) Name() string {
	return "local"
}
