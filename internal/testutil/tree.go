package testutil

import "fsdrift/internal/drift"

// Dir returns a directory entry named name at path holding children in order.
func Dir(path, name string, modified uint64, children ...*drift.Entry) *drift.Entry {
	if children == nil {
		children = []*drift.Entry{}
	}
	return &drift.Entry{
		Path:     path,
		Name:     name,
		IsDir:    true,
		Modified: modified,
		Children: children,
	}
}

// File returns a file entry.
func File(path, name string, size, modified uint64) *drift.Entry {
	return &drift.Entry{
		Path:     path,
		Name:     name,
		Size:     size,
		Modified: modified,
	}
}

// SampleTree returns a small tree rooted at /data/root:
//
//	root/           (mtime 10)
//	  a.txt         (size 5, mtime 100)
//	  sub/          (mtime 20)
//	    b.pdf       (size 7, mtime 50)
func SampleTree() *drift.Entry {
	return Dir("/data/root", "root", 10,
		File("/data/root/a.txt", "a.txt", 5, 100),
		Dir("/data/root/sub", "sub", 20,
			File("/data/root/sub/b.pdf", "b.pdf", 7, 50),
		),
	)
}
