package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"fsdrift/internal/drift"
)

// fileID identifies a directory across symlinks.
type fileID struct {
	dev, ino uint64
}

// TreeBuilder captures a filesystem subtree as a drift.Entry tree.
type TreeBuilder struct {
	fs       billy.Filesystem
	logger   drift.Logger
	patterns []string
}

// NewTreeBuilder creates a builder over fsys. ignorePatterns are applied in
// addition to the ignore file found in the capture root.
func NewTreeBuilder(fsys billy.Filesystem, logger drift.Logger, ignorePatterns []string) *TreeBuilder {
	return &TreeBuilder{
		fs:       fsys,
		logger:   logger,
		patterns: ignorePatterns,
	}
}

// NewOSTreeBuilder creates a builder over the real filesystem.
func NewOSTreeBuilder(logger drift.Logger, ignorePatterns []string) *TreeBuilder {
	return NewTreeBuilder(osfs.New("/"), logger, ignorePatterns)
}

// pending is a directory whose listing has been read but whose children have not been built.
type pending struct {
	entry   *drift.Entry
	listing []os.FileInfo
}

// Build walks root and returns its tree. Only a failure to stat or list the root
// itself is returned; unreadable descendants are skipped. Symlinks are followed,
// and a directory already reached through another path is not walked twice.
// Cancelling ctx stops the walk between directories.
func (b *TreeBuilder) Build(ctx context.Context, root string) (*drift.Entry, error) {
	root = filepath.Clean(root)

	info, err := b.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", drift.ErrIO, root, err)
	}
	rootEntry := newEntry(root, info)
	if !info.IsDir() {
		return rootEntry, nil
	}

	listing, err := b.fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", drift.ErrIO, root, err)
	}

	matcher, err := b.matcher(root)
	if err != nil {
		return nil, err
	}

	visited := make(map[fileID]bool)
	if id, ok := identify(info); ok {
		visited[id] = true
	}

	stack := []pending{{entry: rootEntry, listing: listing}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capturing %s: %w", root, err)
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range cur.listing {
			childPath := filepath.Join(cur.entry.Path, child.Name())
			if rel, err := filepath.Rel(root, childPath); err == nil && matcher.Match(rel) {
				continue
			}

			// Listing info describes the link itself; stat again to follow it.
			childInfo, err := b.fs.Stat(childPath)
			if err != nil {
				b.logger.Debug("skipping unreadable entry", "path", childPath, "error", err)
				continue
			}

			if !childInfo.IsDir() {
				cur.entry.Children = append(cur.entry.Children, newEntry(childPath, childInfo))
				continue
			}

			if id, ok := identify(childInfo); ok {
				if visited[id] {
					b.logger.Debug("skipping already visited directory", "path", childPath)
					continue
				}
				visited[id] = true
			}

			childListing, err := b.fs.ReadDir(childPath)
			if err != nil {
				b.logger.Debug("skipping unlistable directory", "path", childPath, "error", err)
				continue
			}

			childEntry := newEntry(childPath, childInfo)
			cur.entry.Children = append(cur.entry.Children, childEntry)
			stack = append(stack, pending{entry: childEntry, listing: childListing})
		}
	}

	return rootEntry, nil
}

// matcher combines configured patterns with the root's ignore file.
func (b *TreeBuilder) matcher(root string) (*IgnoreMatcher, error) {
	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, b.patterns...)

	filePatterns, err := ParseIgnoreFile(b.fs, filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drift.ErrIO, err)
	}
	patterns = append(patterns, filePatterns...)
	return NewIgnoreMatcher(patterns), nil
}

func newEntry(path string, info os.FileInfo) *drift.Entry {
	entry := &drift.Entry{
		Path:  path,
		Name:  filepath.Base(path),
		IsDir: info.IsDir(),
	}
	if mod := info.ModTime().Unix(); mod > 0 {
		entry.Modified = uint64(mod)
	}
	if entry.IsDir {
		entry.Children = []*drift.Entry{}
	} else {
		entry.Size = uint64(info.Size())
	}
	return entry
}

// Compile-time check that TreeBuilder implements drift.TreeSource.
var _ drift.TreeSource = (*TreeBuilder)(nil)
