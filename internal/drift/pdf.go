package drift

import "strings"

// ListCandidates returns the full paths of every entry in tree whose name ends
// with ".pdf", case-insensitively. The walk is depth-first pre-order with
// children visited in stored order.
func ListCandidates(tree *Entry) []string {
	candidates := []string{}
	if tree == nil {
		return candidates
	}

	stack := []*Entry{tree}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if isPDF(cur.Name) {
			candidates = append(candidates, cur.Path)
		}
		// Push in reverse so the first child is popped first.
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return candidates
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
