// Package rag coordinates one query turn: it hands the question, the
// session history and the tool definitions to the generation provider,
// executes whatever tool calls come back, and completes the turn with a
// final answer plus the sources the tools surfaced.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bull/coursechat/internal/generate"
	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/session"
	"github.com/bull/coursechat/internal/tools"
)

// DefaultMaxToolRounds bounds how many tool-execution rounds one turn
// may run before the provider is forced to answer.
const DefaultMaxToolRounds = 2

// ToolRunner is the slice of the tool registry the orchestrator drives.
type ToolRunner interface {
	Definitions() []generate.ToolDef
	Execute(ctx context.Context, name string, args json.RawMessage) (string, []search.Attribution, error)
}

// Answer is the outcome of one query turn.
type Answer struct {
	Text    string
	Sources []search.Attribution
}

// Orchestrator runs query turns against the generation provider.
type Orchestrator struct {
	generator generate.Generator
	tools     ToolRunner
	history   session.Store
	maxRounds int
	logger    *slog.Logger
}

// NewOrchestrator creates the query orchestrator. A maxRounds of 0 or
// below selects DefaultMaxToolRounds; a nil logger falls back to
// slog.Default().
func NewOrchestrator(generator generate.Generator, runner ToolRunner, history session.Store, maxRounds int, logger *slog.Logger) *Orchestrator {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator: generator,
		tools:     runner,
		history:   history,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Answer runs one query turn for the session. The provider decides
// whether to answer directly or to call tools first; every requested
// call in a response is executed and its results fed back. When the
// provider still wants tools after maxRounds rounds, the turn completes
// with one forced tool-free generation and the answer is returned
// together with ErrToolRoundsExceeded.
//
// History is only updated once a final answer exists, so a failed or
// cancelled turn leaves the session exactly as it was.
func (o *Orchestrator) Answer(ctx context.Context, sessionID, query string) (*Answer, error) {
	prior, err := o.history.Exchanges(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	req := generate.Request{
		System:   SystemPrompt,
		History:  toTurns(prior),
		Messages: []generate.Message{generate.UserMessage(query)},
		Tools:    o.tools.Definitions(),
	}

	var sources []search.Attribution
	for round := 0; ; round++ {
		completion, err := o.generator.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}

		switch completion.Kind {
		case generate.DirectAnswer:
			return o.finish(ctx, sessionID, query, completion.Text, sources), nil

		case generate.ToolRequest:
			if round >= o.maxRounds {
				o.logger.Warn("tool round budget exhausted, forcing final answer",
					"session", sessionID, "rounds", round)
				text, err := o.forceAnswer(ctx, req)
				if err != nil {
					return nil, err
				}
				answer := o.finish(ctx, sessionID, query, text, sources)
				return answer, fmt.Errorf("%w: still requesting tools after %d rounds", ErrToolRoundsExceeded, round)
			}

			req.Messages = append(req.Messages, completion.Assistant)
			for _, call := range completion.ToolCalls {
				result, attrs, err := o.executeCall(ctx, sessionID, call)
				if err != nil {
					return nil, err
				}
				sources = mergeSources(sources, attrs)
				req.Messages = append(req.Messages, generate.ToolResult(call.ID, result))
			}

		default:
			return nil, fmt.Errorf("unexpected completion kind %d", completion.Kind)
		}
	}
}

// executeCall runs one requested tool call. Calls the provider got
// wrong (unknown name, malformed arguments) are recoverable: the error
// text becomes the tool result, so the provider can rephrase or answer
// without it. Infrastructure failures end the turn.
func (o *Orchestrator) executeCall(ctx context.Context, sessionID string, call generate.ToolCall) (string, []search.Attribution, error) {
	result, attrs, err := o.tools.Execute(ctx, call.Name, call.Arguments)
	if err == nil {
		return result, attrs, nil
	}
	if errors.Is(err, tools.ErrUnknownTool) || errors.Is(err, tools.ErrBadArguments) {
		o.logger.Warn("recoverable tool failure", "session", sessionID, "tool", call.Name, "error", err)
		return fmt.Sprintf("Tool call failed: %v", err), nil, nil
	}
	return "", nil, fmt.Errorf("execute tool %s: %w", call.Name, err)
}

// forceAnswer reruns the transcript without tool definitions, so the
// provider has no choice but to produce answer text.
func (o *Orchestrator) forceAnswer(ctx context.Context, req generate.Request) (string, error) {
	req.Tools = nil
	completion, err := o.generator.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate forced answer: %w", err)
	}
	return completion.Text, nil
}

// finish records the completed exchange and assembles the answer. A
// failed history write is logged, not fatal: the answer exists and the
// store holds either the whole new exchange or nothing.
func (o *Orchestrator) finish(ctx context.Context, sessionID, query, text string, sources []search.Attribution) *Answer {
	if err := o.history.Append(ctx, sessionID, session.Exchange{Query: query, Answer: text}); err != nil {
		o.logger.Error("failed to record exchange", "session", sessionID, "error", err)
	}
	return &Answer{Text: text, Sources: sources}
}

// toTurns converts stored exchanges into provider history turns.
func toTurns(history []session.Exchange) []generate.Turn {
	if len(history) == 0 {
		return nil
	}
	turns := make([]generate.Turn, len(history))
	for i, ex := range history {
		turns[i] = generate.Turn{User: ex.Query, Assistant: ex.Answer}
	}
	return turns
}

// mergeSources appends attrs, dropping exact duplicates of sources
// already collected earlier in the turn.
func mergeSources(sources, attrs []search.Attribution) []search.Attribution {
	for _, attr := range attrs {
		duplicate := false
		for _, have := range sources {
			if attributionsEqual(have, attr) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			sources = append(sources, attr)
		}
	}
	return sources
}

func attributionsEqual(a, b search.Attribution) bool {
	if a.CourseTitle != b.CourseTitle || a.Link != b.Link {
		return false
	}
	if (a.LessonNumber == nil) != (b.LessonNumber == nil) {
		return false
	}
	return a.LessonNumber == nil || *a.LessonNumber == *b.LessonNumber
}
