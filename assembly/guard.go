package assembly

// guard tracks the chain of configuration documents currently being built.
// Re-entering a document already on the active chain is a cycle. Builds are
// single-threaded, so no locking is needed.
type guard struct {
	active    []string // canonical document paths in DFS order
	activeSet map[string]struct{}
	completed map[string]struct{}
}

func newGuard() *guard {
	return &guard{
		activeSet: make(map[string]struct{}),
		completed: make(map[string]struct{}),
	}
}

// enter pushes a document onto the active chain, failing with the full cycle
// if it is already there.
func (g *guard) enter(path string) error {
	if _, ok := g.activeSet[path]; ok {
		chain := make([]string, 0, len(g.active)+1)
		chain = append(chain, g.active...)
		chain = append(chain, path)
		return &CyclicReferenceError{Chain: chain}
	}
	g.active = append(g.active, path)
	g.activeSet[path] = struct{}{}
	return nil
}

// exit pops a document off the active chain and records it as completed.
func (g *guard) exit(path string) {
	for i := len(g.active) - 1; i >= 0; i-- {
		if g.active[i] == path {
			g.active = append(g.active[:i], g.active[i+1:]...)
			break
		}
	}
	delete(g.activeSet, path)
	g.completed[path] = struct{}{}
}

// wasCompleted reports whether a document has already been built during this
// run, for diagnostics. Completed documents may be built again: sharing is by
// configuration, not by identity.
func (g *guard) wasCompleted(path string) bool {
	_, ok := g.completed[path]
	return ok
}
