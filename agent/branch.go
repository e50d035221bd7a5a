package agent

// buildBranchPath composes a hierarchical branch identifier used to mark
// fan-out arms. Empty parent or child segments collapse to the other side.
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
