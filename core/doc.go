// Package core defines the foundational types shared by the AgentLoom
// packages: the Agent interface, role-based content parts, session state and
// the contexts threaded through agent, callback and tool execution.
//
// The assembly engine (package assembly) produces trees of core.Agent; the
// agent package provides the concrete variants. Everything here is plain data
// plus small synchronization helpers so higher layers stay decoupled.
package core
