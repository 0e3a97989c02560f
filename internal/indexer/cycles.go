package indexer

// wouldCycle reports whether adding child->parent to edges (an existing
// adjacency child_tag_id -> []parent_tag_id) would close a cycle: that
// is, whether parent can already reach child by following parent edges
// upward, which would close a cycle in the supertag graph.
func wouldCycle(edges map[string][]string, child, parent string) bool {
	if child == parent {
		return true
	}
	visited := make(map[string]bool)
	var reaches func(from, target string) bool
	reaches = func(from, target string) bool {
		if from == target {
			return true
		}
		if visited[from] {
			return false
		}
		visited[from] = true
		for _, p := range edges[from] {
			if reaches(p, target) {
				return true
			}
		}
		return false
	}
	return reaches(parent, child)
}
