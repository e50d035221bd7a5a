// Package assembly turns declarative agent configuration documents into live,
// wired agent hierarchies.
//
// The Builder walks documents depth-first: each node is variant-dispatched
// and validated, its callback and tool references resolved against the
// artifact registry, its sub-agent references built recursively (following
// config_path references across documents with cycle detection), and finally
// constructed and wired. Argument binding for invocable artifacts follows
// positional-then-named ordering with typed resolution of nested code, tool
// and agent parameters.
package assembly
