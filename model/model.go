package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentloom/agentloom/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"` // Instructions for the model
	Contents     []core.Content   `json:"contents"`     // Higher-level content converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of one generation turn.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Text returns the concatenated text segments of the response content.
func (r *Response) Text() string { return r.Content.Text() }

// FunctionCalls returns the function call requests in the response content.
func (r *Response) FunctionCalls() []core.FunctionCall { return r.Content.FunctionCalls() }

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	// Generate performs one completed generation turn.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It matches the latest user text against registered prompts and falls back
// to a default reply.
type MockModel struct {
	mu           sync.RWMutex
	info         Info
	responses    map[string]string
	defaultReply string
	calls        int
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses:    make(map[string]string),
		defaultReply: "ok",
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetDefaultReply sets the reply used when no registered prompt matches.
func (m *MockModel) SetDefaultReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultReply = reply
}

// Calls returns the number of Generate invocations, for assertions in tests.
func (m *MockModel) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Generate implements Model by echoing the canned response for the most
// recent user content.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	prompt := ""
	for _, c := range req.Contents {
		if c.Role == "user" {
			prompt = c.Text()
		}
	}

	m.mu.RLock()
	reply, ok := m.responses[prompt]
	if !ok {
		reply = m.defaultReply
	}
	m.mu.RUnlock()

	return &Response{
		ID:           fmt.Sprintf("mock-%d", m.Calls()),
		Content:      core.NewAssistantText(reply),
		FinishReason: "stop",
	}, nil
}

// Info returns metadata describing the mock model.
func (m *MockModel) Info() Info { return m.info }
