// Package ide writes IDE projects that present a test package's sources.
package ide

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/zyedidia/stat/project"
	"github.com/zyedidia/stat/toolchain"
	"github.com/zyedidia/stat/tree"
)

// DefaultDir is the directory IDE files are written to.
const DefaultDir = "ide"

// A Token identifies a directory of the project view to the writer that
// created it.
type Token interface{}

// A Writer receives the project tree one directory at a time and writes its
// IDE files when Write is called.
type Writer interface {
	RootToken() Token
	DirToken(name string, parent Token) Token
	AddFile(path string, parent Token)
	Write() error
}

type MSVSConfig struct {
	Year    int
	Version string
	NMake   string
}

type Config struct {
	Dir        string
	OutputDir  string
	DummiesDir string
	Toolchain  *toolchain.Toolchain
	MSVS       MSVSConfig
	// Zip archive unpacked into a new Source Insight project.
	SourceInsightTemplate string
	// Where progress messages go. Nil discards them.
	Out io.Writer
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.DummiesDir == "" {
		c.DummiesDir = project.DummiesDir
	}
	if c.Out == nil {
		c.Out = io.Discard
	}
	if c.MSVS.Year == 0 {
		c.MSVS.Year = 2019
	}
	if c.MSVS.Version == "" {
		c.MSVS.Version = "16.0"
	}
	if c.MSVS.NMake == "" {
		c.MSVS.NMake = "nmake"
	}
	return c
}

type constructor func(p *project.Project, cfg Config) (Writer, error)

var writers = map[string]constructor{
	"vscode":        newVSCode,
	"msvs":          newMSVS,
	"sourceinsight": newSourceInsight,
}

// Names returns the accepted IDE names.
func Names() []string {
	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

// New returns the writer for the IDE called name. Names are matched ignoring
// case and dashes, so "VS-Code" selects "vscode".
func New(name string, p *project.Project, cfg Config) (Writer, error) {
	fn, ok := writers[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown IDE '%s' (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	cfg = cfg.withDefaults()
	if cfg.Toolchain == nil {
		tc, err := toolchain.New("")
		if err != nil {
			return nil, err
		}
		cfg.Toolchain = tc
	}
	return fn(p, cfg)
}

// WriteWorkspace feeds the tree of p to w and writes the result into dir.
func WriteWorkspace(w Writer, p *project.Project, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	root, err := p.Tree()
	if err != nil {
		return err
	}
	addTree(w, root, w.RootToken())
	return w.Write()
}

func addTree(w Writer, n *tree.Node, parent Token) {
	for _, name := range n.Files() {
		path, _ := n.File(name)
		w.AddFile(nativePath(path), parent)
	}
	for _, name := range n.Dirs() {
		sub, _ := n.Dir(name)
		addTree(w, sub, w.DirToken(name, parent))
	}
}

func nativePath(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(p, "/", `\`)
	}
	return strings.ReplaceAll(p, `\`, "/")
}
