// Package assistant answers questions about team data through a
// chat-completion API with tool calling. The model never touches the
// database: it can only request the declared tools, and every tool runs
// through the same authorization as a direct API call by the same user.
package assistant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are the Track Team Portal assistant. You answer " +
	"questions about meets, event assignments, results, announcements, and " +
	"the roster using the provided tools. Only state facts returned by the " +
	"tools. If a tool reports that the user is not allowed to see something, " +
	"apologize briefly and do not speculate about the hidden data."

// The model occasionally keeps asking for tools; after this many rounds we
// stop and apologize instead of looping.
const maxToolRounds = 5

const apology = "Sorry — I wasn't able to look that up right now. Please try again or check the relevant page directly."

// ChatCompleter is the slice of the OpenAI client the assistant needs;
// tests substitute a scripted fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ToolExecutor is what the loop needs from the toolset.
type ToolExecutor interface {
	Definitions() []openai.Tool
	Execute(ctx context.Context, userID uuid.UUID, name, arguments string) (string, error)
}

// ErrUpstream wraps completion-API failures so the handler can answer with
// a generic message instead of the provider's error text.
var ErrUpstream = errors.New("assistant upstream failure")

type Assistant struct {
	client ChatCompleter
	tools  ToolExecutor
	model  string
	logger *zap.Logger
}

func New(client ChatCompleter, tools ToolExecutor, model string, logger *zap.Logger) *Assistant {
	return &Assistant{client: client, tools: tools, model: model, logger: logger}
}

// ChatMessage is one turn of user-visible conversation history.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Answer runs the tool-call loop: send the conversation plus tool
// declarations, execute whatever tools the model requests as the given
// user, feed the outputs back, and return the model's final text. A failed
// tool degrades to an apology in the reply, never a raw error.
func (a *Assistant) Answer(ctx context.Context, userID uuid.UUID, history []ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	tools := a.tools.Definitions()

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			a.logger.Error("chat completion failed", zap.Error(err))
			return "", ErrUpstream
		}
		if len(resp.Choices) == 0 {
			return "", ErrUpstream
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			output, err := a.tools.Execute(ctx, userID, tc.Function.Name, tc.Function.Arguments)
			if err != nil {
				// Tool infrastructure failed (DB down, etc). Degrade to an
				// apologetic answer; never surface the raw error to chat.
				a.logger.Error("tool execution failed",
					zap.String("tool", tc.Function.Name),
					zap.Error(err),
				)
				return apology, nil
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: tc.ID,
				Content:    output,
			})
		}
	}

	return apology, nil
}
