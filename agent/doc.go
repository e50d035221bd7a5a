// Package agent provides the agent variants assembled from configuration
// documents or constructed programmatically: BaseAgent (structural node with
// callbacks), LlmAgent (model-driven with tools and callbacks), and the
// workflow coordinators LoopAgent, SequentialAgent and ParallelAgent.
//
// All variants embed BaseAgent for identity, hierarchy management and
// agent-level callback execution, and satisfy core.Agent.
package agent
