package drift

import "sort"

// ModifiedEntry is a path present in both trees whose modification time changed.
type ModifiedEntry struct {
	Path        string
	OldModified uint64
	NewModified uint64
}

// DriftReport is the delta between two captures of the same subtree.
// Every list is sorted by path so reports are deterministic.
type DriftReport struct {
	Added    []string
	Removed  []string
	Modified []ModifiedEntry
}

// Empty reports whether no differences were found.
func (r *DriftReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Diff compares two trees by root-relative path. Only the modification time is compared;
// an entry whose size changed without its mtime changing is reported as unchanged.
// A nil tree is treated as empty.
func Diff(oldTree, newTree *Entry) *DriftReport {
	oldIndex := flatten(oldTree)
	newIndex := flatten(newTree)

	report := &DriftReport{
		Added:    []string{},
		Removed:  []string{},
		Modified: []ModifiedEntry{},
	}

	for path, newMod := range newIndex {
		oldMod, ok := oldIndex[path]
		if !ok {
			report.Added = append(report.Added, path)
			continue
		}
		if oldMod != newMod {
			report.Modified = append(report.Modified, ModifiedEntry{
				Path:        path,
				OldModified: oldMod,
				NewModified: newMod,
			})
		}
	}
	for path := range oldIndex {
		if _, ok := newIndex[path]; !ok {
			report.Removed = append(report.Removed, path)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Slice(report.Modified, func(i, j int) bool {
		return report.Modified[i].Path < report.Modified[j].Path
	})
	return report
}

// pathIndex maps a root-relative path to the entry's modification time.
type pathIndex map[string]uint64

// childKey joins a child name onto its parent's key. Children of a root
// named "/" are keyed "/etc", not "//etc".
func childKey(parent, name string) string {
	if parent == "/" {
		return parent + name
	}
	return parent + "/" + name
}

// flatten builds a pathIndex with an explicit stack so deep trees do not grow the call stack.
// The root is keyed by its own name; every other node by childKey(parentKey, name).
func flatten(root *Entry) pathIndex {
	index := make(pathIndex)
	if root == nil {
		return index
	}

	type pending struct {
		entry *Entry
		key   string
	}
	stack := []pending{{entry: root, key: root.Name}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		index[cur.key] = cur.entry.Modified
		for _, child := range cur.entry.Children {
			stack = append(stack, pending{entry: child, key: childKey(cur.key, child.Name)})
		}
	}
	return index
}
