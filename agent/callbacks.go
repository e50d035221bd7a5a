package agent

import (
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/model"
	"github.com/agentloom/agentloom/tool"
)

// AgentCallback runs before or after an agent's body. A before callback
// returning non-nil content becomes the agent's output and skips the body;
// an after callback returning non-nil content is appended as additional output.
type AgentCallback func(cc *core.CallbackContext) (*core.Content, error)

// ModelRequestCallback runs before each model call. It may mutate the request
// in place; returning a non-nil response short-circuits the model call.
type ModelRequestCallback func(cc *core.CallbackContext, req *model.Request) (*model.Response, error)

// ModelResponseCallback runs after each model call. Returning a non-nil
// response replaces the model's response.
type ModelResponseCallback func(cc *core.CallbackContext, resp *model.Response) (*model.Response, error)

// ToolCallback runs before a tool call. It may mutate args in place;
// returning a non-nil result skips the tool and is used as its result.
type ToolCallback func(tc *core.ToolContext, t tool.Tool, args map[string]any) (any, error)

// ToolResponseCallback runs after a tool call. Returning a non-nil result
// replaces the tool's result.
type ToolResponseCallback func(tc *core.ToolContext, t tool.Tool, args map[string]any, result any) (any, error)
