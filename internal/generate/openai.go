package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
)

// DefaultChatModel is used when no model is configured.
const DefaultChatModel = openai.ChatModelGPT4o

// OpenAI implements Generator on the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewOpenAI creates a Generator backed by the given OpenAI client.
// An empty model selects DefaultChatModel.
func NewOpenAI(client *openai.Client, model string) *OpenAI {
	m := openai.ChatModel(model)
	if model == "" {
		m = DefaultChatModel
	}
	return &OpenAI{client: client, model: m}
}

// Complete runs one chat completion. A response carrying tool calls
// becomes a ToolRequest completion whose Assistant message preserves the
// provider-native form for the follow-up request.
func (g *OpenAI) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    g.model,
		Messages: buildMessages(req),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from chat completion", ErrServiceUnavailable)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			calls = append(calls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			})
		}
		return &Completion{
			Kind:      ToolRequest,
			ToolCalls: calls,
			Assistant: Message{Role: RoleAssistant, Content: msg.Content, raw: msg.ToParam()},
		}, nil
	}

	return &Completion{Kind: DirectAnswer, Text: msg.Content}, nil
}

// buildMessages flattens system prompt, prior exchanges and the working
// transcript into the provider's message union.
func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(req.History)+len(req.Messages))
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		msgs = append(msgs, openai.UserMessage(turn.User), openai.AssistantMessage(turn.Assistant))
	}
	for _, m := range req.Messages {
		if u, ok := m.raw.(openai.ChatCompletionMessageParamUnion); ok {
			msgs = append(msgs, u)
			continue
		}
		switch m.Role {
		case RoleTool:
			msgs = append(msgs, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

// buildTools converts neutral tool definitions into function tools.
func buildTools(defs []ToolDef) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  openai.FunctionParameters(def.InputSchema),
		}))
	}
	return tools
}

// classifyErr wraps provider outages in ErrServiceUnavailable so callers
// can distinguish them from bad requests. Rate limits and 5xx responses
// count as outages; everything else passes through.
func classifyErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return fmt.Errorf("chat completion failed: %w", err)
	}
	// Non-API errors are connection-level failures.
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
