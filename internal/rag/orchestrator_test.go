package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bull/coursechat/internal/generate"
	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/session"
	"github.com/bull/coursechat/internal/tools"
)

// fakeGenerator pops scripted completions in order; once the script is
// exhausted it repeats the last one.
type fakeGenerator struct {
	script   []*generate.Completion
	err      error
	requests []generate.Request
}

func (f *fakeGenerator) Complete(ctx context.Context, req generate.Request) (*generate.Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.requests) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	return f.script[i], nil
}

type executedCall struct {
	name string
	args string
}

// fakeRunner records executions and pops scripted results in order.
type fakeRunner struct {
	results []string
	sources [][]search.Attribution
	err     error
	calls   []executedCall
}

func (f *fakeRunner) Definitions() []generate.ToolDef {
	return []generate.ToolDef{{Name: "search_course_content", Description: "search"}}
}

func (f *fakeRunner) Execute(ctx context.Context, name string, args json.RawMessage) (string, []search.Attribution, error) {
	f.calls = append(f.calls, executedCall{name: name, args: string(args)})
	if f.err != nil {
		return "", nil, f.err
	}
	i := len(f.calls) - 1
	result := "tool output"
	if i < len(f.results) {
		result = f.results[i]
	}
	var attrs []search.Attribution
	if i < len(f.sources) {
		attrs = f.sources[i]
	}
	return result, attrs, nil
}

func direct(text string) *generate.Completion {
	return &generate.Completion{Kind: generate.DirectAnswer, Text: text}
}

func toolRequest(calls ...generate.ToolCall) *generate.Completion {
	return &generate.Completion{
		Kind:      generate.ToolRequest,
		ToolCalls: calls,
		Assistant: generate.AssistantMessage(""),
	}
}

func call(id, name, args string) generate.ToolCall {
	return generate.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func attr(course string, lesson int) search.Attribution {
	return search.Attribution{CourseTitle: course, LessonNumber: &lesson}
}

// TestAnswer_Direct tests a turn where the provider answers without
// searching: no tool runs, history gains the exchange.
func TestAnswer_Direct(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{direct("MCP is a protocol.")}}
	runner := &fakeRunner{}
	history := session.NewMemoryStore(2)
	orch := NewOrchestrator(gen, runner, history, 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "What is MCP?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer.Text != "MCP is a protocol." {
		t.Errorf("Answer text: got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("Direct answers carry no sources, got %d", len(answer.Sources))
	}
	if len(runner.calls) != 0 {
		t.Errorf("No tool should run, got %d calls", len(runner.calls))
	}

	exchanges, _ := history.Exchanges(context.Background(), "s1")
	if len(exchanges) != 1 || exchanges[0].Answer != "MCP is a protocol." {
		t.Errorf("History not updated: %+v", exchanges)
	}

	// The provider must have been offered the tools.
	if len(gen.requests) != 1 || len(gen.requests[0].Tools) != 1 {
		t.Errorf("Tools not offered to the provider: %+v", gen.requests)
	}
	if gen.requests[0].System != SystemPrompt {
		t.Error("System prompt not passed through")
	}
}

// TestAnswer_SingleToolCall tests the full tool round trip: request,
// execution, result fed back, final answer with sources.
func TestAnswer_SingleToolCall(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(call("call_1", "search_course_content", `{"query":"setup"}`)),
		direct("You set it up like this."),
	}}
	runner := &fakeRunner{
		results: []string{"[Intro to MCP - Lesson 1]\nRun the installer."},
		sources: [][]search.Attribution{{attr("Intro to MCP", 1)}},
	}
	history := session.NewMemoryStore(2)
	orch := NewOrchestrator(gen, runner, history, 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "How do I set it up?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer.Text != "You set it up like this." {
		t.Errorf("Answer text: got %q", answer.Text)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(runner.calls))
	}
	if runner.calls[0].name != "search_course_content" || !strings.Contains(runner.calls[0].args, "setup") {
		t.Errorf("Tool call: got %+v", runner.calls[0])
	}

	if len(answer.Sources) != 1 || answer.Sources[0].CourseTitle != "Intro to MCP" {
		t.Errorf("Sources: got %+v", answer.Sources)
	}

	// Second generation call must carry the tool result in the transcript.
	if len(gen.requests) != 2 {
		t.Fatalf("Expected 2 generation calls, got %d", len(gen.requests))
	}
	followUp := gen.requests[1].Messages
	last := followUp[len(followUp)-1]
	if last.Role != generate.RoleTool || last.ToolCallID != "call_1" {
		t.Errorf("Follow-up transcript missing tool result: %+v", last)
	}
	if !strings.Contains(last.Content, "Run the installer.") {
		t.Errorf("Tool result content: got %q", last.Content)
	}
}

// TestAnswer_TwoCallsOneResponse tests that every call in a single
// provider response is executed and the sources are merged.
func TestAnswer_TwoCallsOneResponse(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(
			call("call_1", "search_course_content", `{"query":"setup","lesson_number":1}`),
			call("call_2", "search_course_content", `{"query":"setup","lesson_number":2}`),
		),
		direct("Combined answer."),
	}}
	runner := &fakeRunner{
		results: []string{"first result", "second result"},
		sources: [][]search.Attribution{
			{attr("Intro to MCP", 1)},
			{attr("Intro to MCP", 2)},
		},
	}
	orch := NewOrchestrator(gen, runner, session.NewMemoryStore(2), 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "setup?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("Both calls must execute, got %d", len(runner.calls))
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("Sources must merge across calls, got %d", len(answer.Sources))
	}
	if *answer.Sources[0].LessonNumber != 1 || *answer.Sources[1].LessonNumber != 2 {
		t.Errorf("Source order not preserved: %+v", answer.Sources)
	}

	// Both results appear as tool messages before the follow-up call.
	var toolMsgs int
	for _, m := range gen.requests[1].Messages {
		if m.Role == generate.RoleTool {
			toolMsgs++
		}
	}
	if toolMsgs != 2 {
		t.Errorf("Expected 2 tool messages in follow-up, got %d", toolMsgs)
	}
}

// TestAnswer_DuplicateSourcesCollapsed tests that identical attributions
// from repeated searches are reported once.
func TestAnswer_DuplicateSourcesCollapsed(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(
			call("call_1", "search_course_content", `{"query":"a"}`),
			call("call_2", "search_course_content", `{"query":"b"}`),
		),
		direct("done"),
	}}
	runner := &fakeRunner{
		sources: [][]search.Attribution{
			{attr("Intro to MCP", 1)},
			{attr("Intro to MCP", 1), attr("Intro to MCP", 3)},
		},
	}
	orch := NewOrchestrator(gen, runner, session.NewMemoryStore(2), 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "q")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("Expected duplicates collapsed to 2 sources, got %+v", answer.Sources)
	}
}

// TestAnswer_RoundBudget tests that a provider stuck on requesting
// tools is cut off: the configured rounds run, then a forced tool-free
// generation completes the turn alongside ErrToolRoundsExceeded.
func TestAnswer_RoundBudget(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(call("c1", "search_course_content", `{"query":"1"}`)),
		toolRequest(call("c2", "search_course_content", `{"query":"2"}`)),
		toolRequest(call("c3", "search_course_content", `{"query":"3"}`)),
		direct("best effort answer"),
	}}
	runner := &fakeRunner{sources: [][]search.Attribution{{attr("Intro to MCP", 1)}}}
	history := session.NewMemoryStore(5)
	orch := NewOrchestrator(gen, runner, history, 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "loop?")
	if !errors.Is(err, ErrToolRoundsExceeded) {
		t.Fatalf("Expected ErrToolRoundsExceeded, got %v", err)
	}
	if answer == nil || answer.Text != "best effort answer" {
		t.Fatalf("Best-effort answer must still be returned, got %+v", answer)
	}
	if len(runner.calls) != 2 {
		t.Errorf("Expected exactly 2 executed rounds, got %d", len(runner.calls))
	}
	if len(answer.Sources) != 1 {
		t.Errorf("Sources from executed rounds must survive, got %+v", answer.Sources)
	}

	// The forcing call must not offer tools.
	final := gen.requests[len(gen.requests)-1]
	if len(final.Tools) != 0 {
		t.Errorf("Forced generation must strip tools, got %d", len(final.Tools))
	}

	// The turn completed, so history gains the exchange.
	exchanges, _ := history.Exchanges(context.Background(), "s1")
	if len(exchanges) != 1 || exchanges[0].Answer != "best effort answer" {
		t.Errorf("History after budget exhaustion: %+v", exchanges)
	}
}

// TestAnswer_UnknownToolRecovers tests that a call to a name nothing
// registered feeds an error text back instead of failing the turn.
func TestAnswer_UnknownToolRecovers(t *testing.T) {
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(call("c1", "no_such_tool", `{}`)),
		direct("answered without the tool"),
	}}
	runner := &fakeRunner{err: fmt.Errorf("%w: %q", tools.ErrUnknownTool, "no_such_tool")}
	orch := NewOrchestrator(gen, runner, session.NewMemoryStore(2), 2, nil)

	answer, err := orch.Answer(context.Background(), "s1", "q")
	if err != nil {
		t.Fatalf("Turn must complete despite the bad call: %v", err)
	}
	if answer.Text != "answered without the tool" {
		t.Errorf("Answer text: got %q", answer.Text)
	}

	var toolMsg generate.Message
	for _, m := range gen.requests[1].Messages {
		if m.Role == generate.RoleTool {
			toolMsg = m
		}
	}
	if !strings.Contains(toolMsg.Content, "Tool call failed") {
		t.Errorf("Provider should see the failure text, got %q", toolMsg.Content)
	}
}

// TestAnswer_InfrastructureErrorFailsTurn tests that a store-level tool
// failure ends the turn without touching history.
func TestAnswer_InfrastructureErrorFailsTurn(t *testing.T) {
	wantErr := errors.New("qdrant down")
	gen := &fakeGenerator{script: []*generate.Completion{
		toolRequest(call("c1", "search_course_content", `{"query":"x"}`)),
	}}
	runner := &fakeRunner{err: wantErr}
	history := session.NewMemoryStore(2)
	orch := NewOrchestrator(gen, runner, history, 2, nil)

	_, err := orch.Answer(context.Background(), "s1", "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected the infrastructure error, got %v", err)
	}

	exchanges, _ := history.Exchanges(context.Background(), "s1")
	if len(exchanges) != 0 {
		t.Errorf("Failed turn must not write history, got %+v", exchanges)
	}
}

// TestAnswer_GenerationFailureNoHistory tests that a provider outage
// propagates and leaves the session untouched.
func TestAnswer_GenerationFailureNoHistory(t *testing.T) {
	gen := &fakeGenerator{err: generate.ErrServiceUnavailable}
	history := session.NewMemoryStore(2)
	orch := NewOrchestrator(gen, &fakeRunner{}, history, 2, nil)

	_, err := orch.Answer(context.Background(), "s1", "q")
	if !errors.Is(err, generate.ErrServiceUnavailable) {
		t.Fatalf("Expected ErrServiceUnavailable, got %v", err)
	}

	exchanges, _ := history.Exchanges(context.Background(), "s1")
	if len(exchanges) != 0 {
		t.Errorf("Failed turn must not write history, got %+v", exchanges)
	}
}

// TestAnswer_HistoryFlowsToProvider tests that prior exchanges reach
// the provider, bounded by the store's limit.
func TestAnswer_HistoryFlowsToProvider(t *testing.T) {
	history := session.NewMemoryStore(2)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		history.Append(ctx, "s1", session.Exchange{
			Query:  fmt.Sprintf("q%d", i),
			Answer: fmt.Sprintf("a%d", i),
		})
	}

	gen := &fakeGenerator{script: []*generate.Completion{direct("ok")}}
	orch := NewOrchestrator(gen, &fakeRunner{}, history, 2, nil)

	if _, err := orch.Answer(ctx, "s1", "q4"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	turns := gen.requests[0].History
	if len(turns) != 2 {
		t.Fatalf("Expected 2 history turns (bound), got %d", len(turns))
	}
	if turns[0].User != "q2" || turns[1].User != "q3" {
		t.Errorf("History turns out of order or unbounded: %+v", turns)
	}
}

// TestAnswer_SessionsIndependent tests two sessions do not share
// history.
func TestAnswer_SessionsIndependent(t *testing.T) {
	history := session.NewMemoryStore(2)
	gen := &fakeGenerator{script: []*generate.Completion{direct("first")}}
	orch := NewOrchestrator(gen, &fakeRunner{}, history, 2, nil)
	ctx := context.Background()

	if _, err := orch.Answer(ctx, "a", "question for a"); err != nil {
		t.Fatal(err)
	}
	if _, err := orch.Answer(ctx, "b", "question for b"); err != nil {
		t.Fatal(err)
	}

	// Session b's turn must not see session a's exchange.
	if turns := gen.requests[1].History; len(turns) != 0 {
		t.Errorf("Session b leaked history: %+v", turns)
	}
}
