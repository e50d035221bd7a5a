package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentloom/agentloom/core"
)

// StateManagerOptions configure the state manager tool.
type StateManagerOptions struct {
	// ReadOnly disables the mutating operations (set_state, delete_state).
	ReadOnly bool
	// KeyPrefix namespaces every state key this tool touches.
	KeyPrefix string
}

// StateManagerTool provides session state access and agent flow control
// through ToolContext. It is the canonical builtin tool class: declaring it
// in a configuration document with an argument mapping parameterizes a fresh
// instance (e.g. a read-only view, or a namespaced key prefix).
type StateManagerTool struct {
	name        string
	description string
	opts        StateManagerOptions
}

// NewStateManagerTool creates a new state management tool.
//
// Supported operations:
//   - get_state / set_state / delete_state / list_state
//   - transfer_agent, escalate, skip_summarization
func NewStateManagerTool(optFns ...func(o *StateManagerOptions)) *StateManagerTool {
	opts := StateManagerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StateManagerTool{
		name: "state_manager",
		description: "Manages session state and agent flow control. Supports operations: " +
			"get_state, set_state, delete_state, list_state, transfer_agent, escalate, skip_summarization.",
		opts: opts,
	}
}

// Name returns the tool identifier.
func (t *StateManagerTool) Name() string { return t.name }

// Description returns the tool description.
func (t *StateManagerTool) Description() string { return t.description }

// ReadOnly reports whether mutating operations are disabled.
func (t *StateManagerTool) ReadOnly() bool { return t.opts.ReadOnly }

// KeyPrefix returns the configured state key namespace.
func (t *StateManagerTool) KeyPrefix() string { return t.opts.KeyPrefix }

// Parameters returns the JSON schema for tool parameters.
func (t *StateManagerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []string{
					"get_state", "set_state", "delete_state", "list_state",
					"transfer_agent", "escalate", "skip_summarization",
				},
				"description": "The state management operation to perform",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key for get_state/set_state/delete_state operations",
			},
			"value": map[string]any{
				"description": "Value for set_state operations (any type)",
			},
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Agent name for transfer_agent operation",
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *StateManagerTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.handleGetState(args, toolCtx)
	case "set_state":
		return t.handleSetState(args, toolCtx)
	case "delete_state":
		return t.handleDeleteState(args, toolCtx)
	case "list_state":
		return t.handleListState(toolCtx)
	case "transfer_agent":
		return t.handleTransferAgent(args, toolCtx)
	case "escalate":
		toolCtx.Escalate()
		return map[string]any{"success": true, "message": "Escalation initiated"}, nil
	case "skip_summarization":
		toolCtx.SkipSummarization()
		return map[string]any{"success": true, "message": "Summarization will be skipped"}, nil
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func (t *StateManagerTool) handleGetState(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for get_state operation")
	}

	value, exists := toolCtx.GetState(t.opts.KeyPrefix + key)
	return map[string]any{
		"key":    key,
		"exists": exists,
		"value":  value,
	}, nil
}

func (t *StateManagerTool) handleSetState(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	if t.opts.ReadOnly {
		return nil, fmt.Errorf("set_state is not permitted: tool is read-only")
	}
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for set_state operation")
	}

	value := args["value"] // Can be any type
	toolCtx.SetState(t.opts.KeyPrefix+key, value)

	return map[string]any{
		"key":     key,
		"value":   value,
		"success": true,
		"message": fmt.Sprintf("State key '%s' set successfully", key),
	}, nil
}

func (t *StateManagerTool) handleDeleteState(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	if t.opts.ReadOnly {
		return nil, fmt.Errorf("delete_state is not permitted: tool is read-only")
	}
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for delete_state operation")
	}

	toolCtx.Session().Delete(t.opts.KeyPrefix + key)
	return map[string]any{"key": key, "success": true}, nil
}

func (t *StateManagerTool) handleListState(toolCtx *core.ToolContext) (any, error) {
	snapshot := toolCtx.Session().Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		if strings.HasPrefix(k, t.opts.KeyPrefix) {
			keys = append(keys, strings.TrimPrefix(k, t.opts.KeyPrefix))
		}
	}
	sort.Strings(keys)
	return map[string]any{"keys": keys, "count": len(keys)}, nil
}

func (t *StateManagerTool) handleTransferAgent(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	agentName, ok := args["agent_name"].(string)
	if !ok {
		return nil, fmt.Errorf("agent_name parameter is required for transfer_agent operation")
	}

	toolCtx.TransferToAgent(agentName)

	return map[string]any{
		"agent_name": agentName,
		"success":    true,
		"message":    fmt.Sprintf("Transfer to agent '%s' initiated", agentName),
	}, nil
}
