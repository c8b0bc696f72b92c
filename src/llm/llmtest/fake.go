// Package llmtest provides scripted chat models for tests that must not reach a provider.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Handler answers one Generate call
type Handler func(ctx context.Context, messages []*schema.Message) (*schema.Message, error)

// FakeModel is a tool-calling chat model driven by a Handler. It records every call.
type FakeModel struct {
	handler Handler
	tools   []*schema.ToolInfo

	mu    *sync.Mutex
	calls *[][]*schema.Message
}

var _ model.ToolCallingChatModel = (*FakeModel)(nil)

func NewFakeModel(handler Handler) *FakeModel {
	var calls [][]*schema.Message
	return &FakeModel{handler: handler, mu: &sync.Mutex{}, calls: &calls}
}

func (f *FakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	*f.calls = append(*f.calls, snapshot)
	f.mu.Unlock()

	return f.handler(ctx, input)
}

func (f *FakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools returns a copy bound to tools that shares the call log
func (f *FakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound := *f
	bound.tools = tools
	return &bound, nil
}

// Tools returns the tool infos the model was bound to
func (f *FakeModel) Tools() []*schema.ToolInfo {
	return f.tools
}

// Calls returns the message lists of every Generate call so far
func (f *FakeModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]*schema.Message, len(*f.calls))
	copy(out, *f.calls)
	return out
}

// PlainModel hides tool support, like providers without function calling
type PlainModel struct {
	Fake *FakeModel
}

var _ model.BaseChatModel = PlainModel{}

func (p PlainModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.Fake.Generate(ctx, input, opts...)
}

func (p PlainModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return p.Fake.Stream(ctx, input, opts...)
}

// Pass identifies which prompt a Generate call belongs to
type Pass string

const (
	PassReply    Pass = "reply"
	PassClassify Pass = "classify"
	PassExtract  Pass = "extract"
	PassSearch   Pass = "search"
)

// PassOf recognizes the pass from the prompt wording
func PassOf(messages []*schema.Message) Pass {
	if len(messages) == 0 {
		return PassReply
	}
	last := messages[len(messages)-1].Content
	first := messages[0].Content
	switch {
	case strings.Contains(last, "Classify the intent"):
		return PassClassify
	case strings.Contains(last, "extract ONLY the artwork names"):
		return PassExtract
	case strings.Contains(first, "Always respond with valid JSON"):
		return PassSearch
	}
	return PassReply
}

// Router builds a Handler that dispatches by pass. Missing passes answer with an empty message.
func Router(handlers map[Pass]Handler) Handler {
	return func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		if h, ok := handlers[PassOf(messages)]; ok {
			return h(ctx, messages)
		}
		return schema.AssistantMessage("", nil), nil
	}
}

// Reply is a Handler that always answers with content
func Reply(content string) Handler {
	return func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

// Fail is a Handler that always returns err
func Fail(err error) Handler {
	return func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		return nil, err
	}
}

// ToolCall builds an assistant message that calls one tool
func ToolCall(id, name, arguments string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: arguments},
	}})
}

// HasToolResult reports whether the conversation already carries a tool answer
func HasToolResult(messages []*schema.Message) bool {
	for _, m := range messages {
		if m.Role == schema.Tool {
			return true
		}
	}
	return false
}
