// File path: internal/llm/providers/openai_client.go
package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/mapline/guestjourney/internal/common"
)

// OpenAIProvider drives interviews through the OpenAI chat completion API.
type OpenAIProvider struct {
	client    openai.Client
	chatModel string
	maxTokens int64
}

// NewOpenAIProvider configures a provider from the OPENAI_CHAT_MODEL and
// JOURNEY_MAX_TOKENS environment variables.
func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	chatModel := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	maxTokens := int64(4096)
	common.Logger().Info("llm: OpenAI provider configured", "chat_model", chatModel)
	return &OpenAIProvider{client: client, chatModel: chatModel, maxTokens: maxTokens}
}

// Chat sends the transcript upstream and returns the raw completion text.
func (o *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "messages", len(messages))

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(o.chatModel),
		MaxTokens: openai.Int(o.maxTokens),
	}
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case "assistant", "agent":
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

// Name identifies the provider.
func (o *OpenAIProvider) Name() string {
	return "openai"
}
