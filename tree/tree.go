// Package tree arranges a flat list of file paths into a directory
// hierarchy. IDE writers walk it to lay out their project views.
package tree

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrNoFile   = errors.New("no such file")
	ErrConflict = errors.New("name used by both a file and a directory")
)

// NoFileError is returned by AddFile for paths that are not regular files.
type NoFileError struct {
	Path string
}

func (e *NoFileError) Error() string {
	return fmt.Sprintf("The file '%s' doesn't exist!", e.Path)
}

func (e *NoFileError) Is(target error) bool {
	return target == ErrNoFile
}

// An Entry is one named child of a node: either a file holding its path or a
// subdirectory.
type Entry struct {
	path string
	node *Node
}

func (e Entry) IsDir() bool {
	return e.node != nil
}

// Path returns the stored path of a file entry.
func (e Entry) Path() string {
	return e.path
}

// Node returns the subdirectory of a directory entry.
func (e Entry) Node() *Node {
	return e.node
}

// A Node is one directory level. Files and subdirectories are listed in the
// order they were first added.
type Node struct {
	files   []string
	dirs    []string
	entries map[string]Entry
}

func New() *Node {
	return &Node{
		entries: make(map[string]Entry),
	}
}

func isSep(r rune) bool {
	return r == '/' || r == '\\'
}

// split breaks p into directory components and a file name. Both '/' and '\'
// separate components. A leading separator becomes a root directory named
// after it.
func split(p string) ([]string, string) {
	var parts []string
	if p != "" && isSep(rune(p[0])) {
		parts = append(parts, p[:1])
	}
	parts = append(parts, strings.FieldsFunc(p, isSep)...)
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// AddFile inserts the file at p, creating the directories leading to it. The
// leaf stores p without its leading "./". Adding a name that is already a
// file replaces its path. The tree is left unchanged on error.
func (n *Node) AddFile(p string) error {
	if !isFile(p) {
		return &NoFileError{Path: p}
	}
	p = strings.TrimPrefix(p, "./")
	dirs, name := split(p)

	// check the whole path before creating anything
	cur := n
	for _, d := range dirs {
		e, ok := cur.entries[d]
		if !ok {
			cur = nil
			break
		}
		if !e.IsDir() {
			return fmt.Errorf("%s: %w", p, ErrConflict)
		}
		cur = e.node
	}
	if cur != nil {
		if e, ok := cur.entries[name]; ok && e.IsDir() {
			return fmt.Errorf("%s: %w", p, ErrConflict)
		}
	}

	cur = n
	for _, d := range dirs {
		cur = cur.mkdir(d)
	}
	if _, ok := cur.entries[name]; !ok {
		cur.files = append(cur.files, name)
	}
	cur.entries[name] = Entry{path: p}
	return nil
}

func (n *Node) mkdir(name string) *Node {
	if e, ok := n.entries[name]; ok {
		return e.node
	}
	child := New()
	n.dirs = append(n.dirs, name)
	n.entries[name] = Entry{node: child}
	return child
}

// Files returns the names of the files directly in n.
func (n *Node) Files() []string {
	return append([]string(nil), n.files...)
}

// Dirs returns the names of the subdirectories directly in n.
func (n *Node) Dirs() []string {
	return append([]string(nil), n.dirs...)
}

func (n *Node) Get(name string) (Entry, bool) {
	e, ok := n.entries[name]
	return e, ok
}

func (n *Node) Has(name string) bool {
	_, ok := n.entries[name]
	return ok
}

// File returns the stored path of the file called name.
func (n *Node) File(name string) (string, bool) {
	e, ok := n.entries[name]
	if !ok || e.IsDir() {
		return "", false
	}
	return e.path, true
}

// Dir returns the subdirectory called name.
func (n *Node) Dir(name string) (*Node, bool) {
	e, ok := n.entries[name]
	if !ok || !e.IsDir() {
		return nil, false
	}
	return e.node, true
}

// Walk calls fn with the path of every file in the tree: the files of n
// first, then those of its subdirectories breadth-first. Walking stops at the
// first error fn returns.
func (n *Node) Walk(fn func(path string) error) error {
	level := []*Node{n}
	for len(level) > 0 {
		var next []*Node
		for _, node := range level {
			for _, name := range node.files {
				if err := fn(node.entries[name].path); err != nil {
					return err
				}
			}
			for _, name := range node.dirs {
				next = append(next, node.entries[name].node)
			}
		}
		level = next
	}
	return nil
}

// FilePaths returns every file path in the order Walk visits them.
func (n *Node) FilePaths() []string {
	var paths []string
	n.Walk(func(path string) error {
		paths = append(paths, path)
		return nil
	})
	return paths
}
