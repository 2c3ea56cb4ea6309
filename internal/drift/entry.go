package drift

import "time"

// HomeLabel is the source label recorded for captures of the user's home directory.
const HomeLabel = "~"

// Entry is one filesystem object in a captured tree.
// Directories always carry a non-nil Children slice (possibly empty); files carry nil.
// A tree is built once and never mutated afterwards; each parent exclusively owns its children.
type Entry struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	IsDir    bool     `json:"is_dir"`
	Size     uint64   `json:"size"`     // 0 for directories
	Modified uint64   `json:"modified"` // UNIX seconds, 0 when unavailable
	Children []*Entry `json:"children"`
}

// Count returns the number of entries in the tree rooted at e, including e itself.
func (e *Entry) Count() int {
	if e == nil {
		return 0
	}
	n := 0
	stack := []*Entry{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, cur.Children...)
	}
	return n
}

// SnapshotRecord is the unit persisted by a SnapshotStore.
// The JSON field names are kept compatible with mappings written by earlier versions of the tool.
type SnapshotRecord struct {
	Datetime    time.Time `json:"datetime"`
	SourceLabel string    `json:"device"`
	RawPayload  string    `json:"data_hex"` // reserved for block-device captures
	Tree        *Entry    `json:"fs_repr"`
}
