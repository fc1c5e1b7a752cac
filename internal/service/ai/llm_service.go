package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/linyuhan/crmbridge/internal/config"
	"github.com/linyuhan/crmbridge/internal/model/chat"
	"github.com/linyuhan/crmbridge/internal/model/lead"
)

// Service wraps the chat model behind the two generation calls the capture
// flow needs: free-form replies and structured lead extraction.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable}, nil
}

// Reply generates the assistant's next turn from the full transcript so far
// plus the incoming user message.
func (s *Service) Reply(ctx context.Context, history []chat.Message, userMessage string) (string, error) {
	input := map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(history),
		"query":   userMessage,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	log.Printf("[ai] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

// ExtractLead asks the model to return the collected fields as a structured
// block and parses the first brace-delimited JSON object out of the response.
func (s *Service) ExtractLead(ctx context.Context, history []chat.Message) (lead.Lead, error) {
	response, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(extractionPrompt + renderTranscript(history)),
	})
	if err != nil {
		return lead.Lead{}, fmt.Errorf("failed to run extraction call: %w", err)
	}

	return ParseLeadBlock(response.Content)
}

// historyMessages converts the stored transcript into model messages. The
// whole transcript is replayed on every turn; there is no pruning.
func historyMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

func renderTranscript(messages []chat.Message) string {
	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(msg.Sender)
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}
	return builder.String()
}
