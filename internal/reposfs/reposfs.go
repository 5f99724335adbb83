// Package reposfs resolves a DAV request path into a davlock.Resource:
// whether something currently exists there, and the canonical
// repository path to hand to the lock provider. It is the sliver of a
// full repository filesystem this provider actually needs — no
// Mkdir/OpenFile/RemoveAll/Rename content operations, since lock
// management never reads or writes file content.
package reposfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/makebin200808/subversion/internal/davlock"
)

// Tree resolves request paths against an on-disk working copy rooted
// at a fixed directory, using os.Root to keep every lookup confined
// under that root the same way the teacher's RootFileSystem did for
// general file access.
type Tree struct {
	root     *os.Root
	rootPath string
}

// Open roots a Tree at dir. dir must exist.
func Open(dir string) (*Tree, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening repository root %q: %w", dir, err)
	}
	return &Tree{root: root, rootPath: dir}, nil
}

// Close releases the root directory handle.
func (t *Tree) Close() error {
	return t.root.Close()
}

// Resolve cleans name into a repository path and reports whether
// something exists there. It never escapes outside the tree's root:
// a name containing ".." that would do so is rejected instead of
// silently clamped.
func (t *Tree) Resolve(ctx context.Context, name string) (*davlock.Resource, error) {
	clean := path.Clean("/" + name)

	// os.Root takes names relative to the root, and itself rejects one
	// whose ".." elements would climb above it.
	rel := path.Clean(strings.TrimLeft(name, "/"))
	_, err := t.root.Stat(rel)
	switch {
	case err == nil:
		return &davlock.Resource{Exists: true, RepoPath: clean}, nil
	case os.IsNotExist(err):
		return &davlock.Resource{Exists: false, RepoPath: clean}, nil
	default:
		return nil, fmt.Errorf("statting %q: %w", clean, err)
	}
}
