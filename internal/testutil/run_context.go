package testutil

import (
	"context"

	"github.com/agentloom/agentloom/core"
)

// NewRunContext builds a run context for a single user input with an
// in-memory session and no logging.
func NewRunContext(input string) *core.RunContext {
	return core.NewRunContext(context.Background(), "test-session", core.NewUserText(input), nil, nil)
}

// NewRunContextWithSession builds a run context over an existing session.
func NewRunContextWithSession(input string, sess *core.Session) *core.RunContext {
	return core.NewRunContext(context.Background(), sess.ID(), core.NewUserText(input), sess, nil)
}

// AssistantTexts extracts the assistant text entries of a transcript in order.
func AssistantTexts(rc *core.RunContext) []string {
	var out []string
	for _, c := range rc.Transcript() {
		if c.Role == "assistant" {
			out = append(out, c.Text())
		}
	}
	return out
}
