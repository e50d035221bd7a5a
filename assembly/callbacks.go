package assembly

import (
	"fmt"

	"github.com/agentloom/agentloom/agent"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/tool"
)

// The as* helpers assert a resolved code artifact to the callback shape its
// configuration slot requires. Both the named callback types and their
// underlying function signatures are accepted.

func asAgentCallback(name string, value any) (agent.AgentCallback, error) {
	switch fn := value.(type) {
	case agent.AgentCallback:
		return fn, nil
	case func(cc *core.CallbackContext) (*core.Content, error):
		return fn, nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want an agent callback", name, value)
	}
}

func asModelRequestCallback(name string, value any) (agent.ModelRequestCallback, error) {
	switch fn := value.(type) {
	case agent.ModelRequestCallback:
		return fn, nil
	case func(cc *core.CallbackContext, req *model.Request) (*model.Response, error):
		return fn, nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want a before-model callback", name, value)
	}
}

func asModelResponseCallback(name string, value any) (agent.ModelResponseCallback, error) {
	switch fn := value.(type) {
	case agent.ModelResponseCallback:
		return fn, nil
	case func(cc *core.CallbackContext, resp *model.Response) (*model.Response, error):
		return fn, nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want an after-model callback", name, value)
	}
}

func asToolCallback(name string, value any) (agent.ToolCallback, error) {
	switch fn := value.(type) {
	case agent.ToolCallback:
		return fn, nil
	case func(tc *core.ToolContext, t tool.Tool, args map[string]any) (any, error):
		return fn, nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want a before-tool callback", name, value)
	}
}

func asToolResponseCallback(name string, value any) (agent.ToolResponseCallback, error) {
	switch fn := value.(type) {
	case agent.ToolResponseCallback:
		return fn, nil
	case func(tc *core.ToolContext, t tool.Tool, args map[string]any, result any) (any, error):
		return fn, nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want an after-tool callback", name, value)
	}
}

func asInstructionProvider(name string, value any) (agent.Provider, error) {
	switch fn := value.(type) {
	case agent.Provider:
		return fn, nil
	case agent.Func:
		return fn, nil
	case func(rc *core.RunContext) (string, error):
		return agent.Func(fn), nil
	default:
		return nil, fmt.Errorf("code reference %q resolved to %T, want an instruction provider", name, value)
	}
}
