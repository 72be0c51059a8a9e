// File path: internal/llm/gateway.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/journey"
)

// ErrInvalidResponse reports that the upstream text could not be parsed into
// the structured reply schema, even after the corrective retry.
var ErrInvalidResponse = errors.New("invalid upstream response")

const rawSampleLimit = 200

const correctionInstruction = "Your previous response was not valid JSON. " +
	"Respond with ONLY valid JSON matching the required schema - no markdown, no backticks, no preamble."

// Gateway sends transcripts upstream and parses structured replies.
type Gateway struct {
	provider Provider
}

// NewGateway wraps a provider.
func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider}
}

// Provider exposes the wrapped backend.
func (g *Gateway) Provider() Provider {
	if g == nil {
		return nil
	}
	return g.provider
}

// Generate runs one conversational turn. The model must produce the
// structured reply schema; on a parse failure the gateway issues exactly one
// corrective retry (conversation + the invalid output + an explicit
// instruction). A second failure is fatal to the turn.
func (g *Gateway) Generate(ctx context.Context, systemPrompt string, history []Message) (*journey.StructuredReply, error) {
	if g == nil || g.provider == nil {
		return nil, errors.New("gateway not initialised")
	}
	logger := common.Logger()

	messages := withSystem(systemPrompt, history)
	raw, err := g.provider.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	reply, parseErr := parseStructured(raw)
	if parseErr == nil {
		return reply, nil
	}

	logger.Warn("llm: reply not parseable, issuing corrective retry", "error", parseErr)
	retryMessages := append(append([]Message{}, messages...),
		Message{Role: "assistant", Content: raw},
		Message{Role: "user", Content: correctionInstruction},
	)
	retryRaw, err := g.provider.Chat(ctx, retryMessages)
	if err != nil {
		return nil, fmt.Errorf("corrective retry: %w", err)
	}
	reply, parseErr = parseStructured(retryRaw)
	if parseErr != nil {
		return nil, fmt.Errorf("%w after retry: %v (raw: %s)",
			ErrInvalidResponse, parseErr, truncate(retryRaw, rawSampleLimit))
	}
	logger.Info("llm: corrective retry recovered a valid reply")
	return reply, nil
}

// GenerateSummary runs the lenient call path used for opening messages,
// session summaries and reports. Unparseable output does not retry; it
// degrades into a synthetic reply whose text is the stripped raw output.
// Summaries are terminal prose and never need a typed payload.
func (g *Gateway) GenerateSummary(ctx context.Context, systemPrompt string, history []Message) (*journey.StructuredReply, error) {
	if g == nil || g.provider == nil {
		return nil, errors.New("gateway not initialised")
	}
	raw, err := g.provider.Chat(ctx, withSystem(systemPrompt, history))
	if err != nil {
		return nil, fmt.Errorf("summary completion: %w", err)
	}
	reply, parseErr := parseStructured(raw)
	if parseErr != nil {
		common.Logger().Debug("llm: summary not structured, returning raw text", "error", parseErr)
		return &journey.StructuredReply{Reply: StripFences(raw)}, nil
	}
	return reply, nil
}

func withSystem(systemPrompt string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	return append(messages, history...)
}

var openFence = regexp.MustCompile("(?i)^```(?:json)?\\s*")

// StripFences removes markdown code-fence wrapping the model sometimes adds
// around its JSON.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = openFence.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func parseStructured(raw string) (*journey.StructuredReply, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}
	var reply journey.StructuredReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Reply) == "" {
		return nil, errors.New("reply field missing or empty")
	}
	return &reply, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
