package core

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentloom/agentloom/logging"
)

// transcriptLog is the append-only conversation record shared by all branches
// of a run. Guarded by its own mutex so parallel branches can append safely.
type transcriptLog struct {
	mu       sync.Mutex
	contents []Content
}

func (t *transcriptLog) append(c Content) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.contents = append(t.contents, c)
}

func (t *transcriptLog) snapshot() []Content {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Content, len(t.contents))
	copy(out, t.contents)
	return out
}

// RunContext carries everything an agent needs during one invocation: the
// cancellable context, the shared session, the conversation transcript and a
// structured logger. Branch identifies the position in the run tree for
// parallel fan-out (e.g. "Root.Worker2").
type RunContext struct {
	Context      context.Context
	SessionID    string
	InvocationID string
	Branch       string
	Input        Content

	session    *Session
	transcript *transcriptLog
	logger     logging.Logger
}

// NewRunContext creates a run context with a fresh invocation ID. A nil
// session gets an in-memory session keyed by sessionID; a nil logger is
// replaced with a NoOpLogger.
func NewRunContext(
	ctx context.Context,
	sessionID string,
	input Content,
	sess *Session,
	logger logging.Logger,
) *RunContext {
	if sess == nil {
		sess = NewSession(sessionID)
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	rc := &RunContext{
		Context:      ctx,
		SessionID:    sessionID,
		InvocationID: uuid.NewString(),
		Input:        input,
		session:      sess,
		transcript:   &transcriptLog{},
		logger:       logger,
	}
	rc.transcript.append(input)
	return rc
}

// WithBranch returns a shallow copy scoped to a branch path. Session state and
// transcript remain shared; only the branch identity differs.
func (rc *RunContext) WithBranch(branch string) *RunContext {
	clone := *rc
	clone.Branch = branch
	return &clone
}

// Done exposes the underlying context's cancellation channel.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err exposes the underlying context's error state.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Session returns the shared session.
func (rc *RunContext) Session() *Session { return rc.session }

// GetState reads a session state value.
func (rc *RunContext) GetState(key string) (any, bool) { return rc.session.Get(key) }

// SetState writes a session state value.
func (rc *RunContext) SetState(key string, value any) { rc.session.Set(key, value) }

// Append records a content entry on the shared transcript.
func (rc *RunContext) Append(c Content) { rc.transcript.append(c) }

// Transcript returns a copy of the conversation so far, in append order.
func (rc *RunContext) Transcript() []Content { return rc.transcript.snapshot() }

// LastText returns the text of the most recent assistant content, or "".
func (rc *RunContext) LastText() string {
	contents := rc.transcript.snapshot()
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == "assistant" {
			return contents[i].Text()
		}
	}
	return ""
}

// Logger returns the structured logger for this run.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// LogDebug logs a debug message.
func (rc *RunContext) LogDebug(msg string, args ...any) { rc.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (rc *RunContext) LogInfo(msg string, args ...any) { rc.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (rc *RunContext) LogWarn(msg string, args ...any) { rc.logger.Warn(msg, args...) }

// LogError logs an error message.
func (rc *RunContext) LogError(msg string, args ...any) { rc.logger.Error(msg, args...) }
