package agent

import (
	"context"
	"sync"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/model"
)

// stepAgent runs an arbitrary function, for exercising the coordinators.
type stepAgent struct {
	BaseAgent
	fn func(rc *core.RunContext) error
}

func newStepAgent(name string, fn func(rc *core.RunContext) error) *stepAgent {
	sa := &stepAgent{BaseAgent: newBase(name), fn: fn}
	sa.bind(sa)
	return sa
}

func (s *stepAgent) Run(rc *core.RunContext) error { return s.fn(rc) }

// scriptedModel replays a fixed response sequence and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*model.Response
	requests  []model.Request
}

func (m *scriptedModel) enqueue(resps ...*model.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resps...)
}

func (m *scriptedModel) Generate(_ context.Context, req model.Request) (*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return &model.Response{Content: core.NewAssistantText("done"), FinishReason: "stop"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func (m *scriptedModel) recordedRequests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func textResponse(text string) *model.Response {
	return &model.Response{Content: core.NewAssistantText(text), FinishReason: "stop"}
}

func toolCallResponse(id, name, args string) *model.Response {
	return &model.Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{
				FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args},
			}},
		},
		FinishReason: "tool_calls",
	}
}
