package tool

import (
	"github.com/agentloom/agentloom/registry"
)

// RegisterBuiltins publishes the framework tools under their short names so
// configuration documents can declare them without a qualified path.
//
//   - "transfer_to_agent" is a ready instance: declaring it with arguments is
//     rejected by the tool resolver.
//   - "state_manager" is a class: a bare declaration constructs a default
//     instance, an argument mapping parameterizes one.
func RegisterBuiltins(reg *registry.Registry) error {
	if err := reg.RegisterBuiltinInstance("transfer_to_agent", NewTransferToAgentTool()); err != nil {
		return err
	}
	return reg.RegisterBuiltinClass("state_manager", &registry.Callable{
		Params: []registry.ParamSpec{
			{Name: "read_only", Kind: registry.ParamValue},
			{Name: "key_prefix", Kind: registry.ParamValue},
		},
		Invoke: func(args map[string]any) (any, error) {
			return NewStateManagerTool(func(o *StateManagerOptions) {
				if v, ok := args["read_only"].(bool); ok {
					o.ReadOnly = v
				}
				if v, ok := args["key_prefix"].(string); ok {
					o.KeyPrefix = v
				}
			}), nil
		},
	})
}
