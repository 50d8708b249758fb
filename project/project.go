// Package project exposes a parsed package descriptor as the set of files
// and settings an IDE needs.
package project

import (
	"os"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/stat/makefile"
	"github.com/zyedidia/stat/tree"
)

// DummiesDir is where stub headers named by DUMMY_INTERFACES live by default.
const DummiesDir = "dummies"

type Options struct {
	Makefile   makefile.Options
	DummiesDir string
}

type Project struct {
	mk      *makefile.Makefile
	dummies string
	tree    *tree.Node
}

// Open parses the descriptor at path.
func Open(path string, opts Options) (*Project, error) {
	mk, err := makefile.Open(path, opts.Makefile)
	if err != nil {
		return nil, err
	}
	return New(mk, opts.DummiesDir), nil
}

// New wraps an already parsed descriptor. An empty dummiesDir selects
// DummiesDir.
func New(mk *makefile.Makefile, dummiesDir string) *Project {
	if dummiesDir == "" {
		dummiesDir = DummiesDir
	}
	return &Project{
		mk:      mk,
		dummies: dummiesDir,
	}
}

// Makefile returns the path of the descriptor.
func (p *Project) Makefile() string {
	return p.mk.Path()
}

func (p *Project) Name() string {
	return p.mk.Name()
}

// OutputName is the name the package's build products are given.
func (p *Project) OutputName() string {
	return p.mk.Get(makefile.Name)
}

func (p *Project) Definitions() []string {
	return p.mk.Fields(makefile.Defines)
}

func (p *Project) Sources() []string {
	return p.mk.Fields(makefile.Sources)
}

// Includes returns the include directories as written in the descriptor.
func (p *Project) Includes() []string {
	return p.mk.Fields(makefile.Includes)
}

// Interfaces returns the dummy header names.
func (p *Project) Interfaces() []string {
	return p.mk.Fields(makefile.Interfaces)
}

func (p *Project) DummiesDir() string {
	return p.dummies
}

func (p *Project) Get(key string) string {
	return p.mk.Get(key)
}

func (p *Project) Keys() []string {
	return p.mk.Keys()
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + string(os.PathSeparator) + name
}

// Headers returns the dummy headers followed by the headers found directly in
// each include directory. When a header name appears more than once, the
// first one is kept, as a compiler searching the include path would find it.
func (p *Project) Headers() ([]string, error) {
	seen := mapset.New[string]()
	var headers []string
	for _, name := range p.Interfaces() {
		path := joinPath(p.dummies, name)
		seen.Put(baseName(path))
		headers = append(headers, path)
	}
	for _, dir := range p.Includes() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".h") || seen.Has(name) {
				continue
			}
			seen.Put(name)
			headers = append(headers, joinPath(dir, name))
		}
	}
	return headers, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Files returns the sources followed by the headers.
func (p *Project) Files() ([]string, error) {
	headers, err := p.Headers()
	if err != nil {
		return nil, err
	}
	return append(p.Sources(), headers...), nil
}

// Tree arranges Files into a directory tree. It is built on the first call
// and reused afterwards.
func (p *Project) Tree() (*tree.Node, error) {
	if p.tree != nil {
		return p.tree, nil
	}
	files, err := p.Files()
	if err != nil {
		return nil, err
	}
	t := tree.New()
	for _, f := range files {
		if err := t.AddFile(f); err != nil {
			return nil, err
		}
	}
	p.tree = t
	return t, nil
}
