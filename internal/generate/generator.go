// Package generate defines the answer-generation capability: a provider
// that takes a conversation plus tool definitions and either answers
// directly or asks for tool executions.
package generate

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrServiceUnavailable marks generation failures caused by the provider
// being unreachable or overloaded rather than by the request itself.
var ErrServiceUnavailable = errors.New("generation service unavailable")

// Kind discriminates the two possible completion outcomes.
type Kind int

const (
	// DirectAnswer means the provider produced final answer text.
	DirectAnswer Kind = iota
	// ToolRequest means the provider wants tool executions before answering.
	ToolRequest
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the working transcript for a single turn.
// raw carries the provider-native form of assistant messages so a
// tool-call round trip can be replayed exactly; fakes leave it nil.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on RoleTool messages
	raw        any
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResult builds the tool-role reply to one requested call.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Turn is one completed user/assistant exchange of prior history.
type Turn struct {
	User      string
	Assistant string
}

// ToolDef describes one callable tool in provider-neutral form.
// InputSchema is a JSON Schema object.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is one execution the provider asked for. Arguments is the
// raw JSON argument object as the provider produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Request is everything a provider needs for one completion: static
// instructions, prior exchanges, the working transcript of the current
// turn, and the tools it may request. Empty Tools means the provider
// must answer directly.
type Request struct {
	System   string
	History  []Turn
	Messages []Message
	Tools    []ToolDef
}

// Completion is the provider's response. For ToolRequest completions,
// Assistant holds the provider's own message announcing the calls; it
// must be appended to Request.Messages before the tool results.
type Completion struct {
	Kind      Kind
	Text      string
	ToolCalls []ToolCall
	Assistant Message
}

// Generator is the answer-generation capability.
type Generator interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
