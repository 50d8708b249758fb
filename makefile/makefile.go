// Package makefile parses the key/value descriptors that describe a test
// package. Only two kinds of lines are understood: inclusions and
// assignments. Rules and other directives are left to the make tool.
package makefile

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zyedidia/stat/expand"
)

// Keys with a meaning to the rest of the system.
const (
	Sources    = "SOURCES"
	Includes   = "INCLUDES"
	Interfaces = "DUMMY_INTERFACES"
	Defines    = "DEFINES"
	Include    = "INCLUDE"
	Name       = "NAME"
	Exec       = "OUTPUT_EXEC"
)

// CoreFile is the runtime's own rules file. Inclusions of it are recognized
// but not followed.
const CoreFile = "stat_core.mak"

var (
	rgxInclude    = regexp.MustCompile(`(?i)^\s*!?include\s+(<\s*)?([^<>=]*?)(\s*>)?\s*$`)
	rgxAssignment = regexp.MustCompile(`^\s*(\w+)\s*=(.*)$`)
)

type Options struct {
	// Directories searched for included files that are not found next to
	// the including file.
	SearchPaths []string
	// Base names of included files to ignore. Nil means CoreFile only.
	Ignore []string
}

// A Makefile is the parsed form of one descriptor. It is read-only once
// Open returns.
type Makefile struct {
	name  string
	path  string
	keys  []string
	items map[string]string

	ignore map[string]bool
}

// Open reads and parses the descriptor at path, following its inclusions.
func Open(path string, opts Options) (*Makefile, error) {
	r, err := NewReader(path, opts.SearchPaths)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	base := filepath.Base(path)
	m := &Makefile{
		name:   strings.TrimSuffix(base, filepath.Ext(base)),
		path:   path,
		items:  make(map[string]string),
		ignore: make(map[string]bool),
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = []string{CoreFile}
	}
	for _, name := range ignore {
		m.ignore[name] = true
	}

	if err := m.parse(r); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Makefile) parse(r *Reader) error {
	for {
		line, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		included, err := m.parseInclude(r, line)
		if err != nil {
			return err
		}
		if !included {
			m.parseAssignment(line)
		}
	}
}

func (m *Makefile) parseInclude(r *Reader, line string) (bool, error) {
	match := rgxInclude.FindStringSubmatch(line)
	if match == nil {
		return false, nil
	}
	open, target, end := match[1], match[2], match[3]
	if (open == "") != (end == "") {
		return false, errorf("Invalid inclusion '%s' in Makefile '%s'!", line, r.CurrentFile())
	}
	target = strings.TrimSpace(m.interpret(target))
	if m.ignore[path.Base(filepath.ToSlash(target))] {
		return true, nil
	}
	return true, r.Include(target, m.includePaths())
}

func (m *Makefile) parseAssignment(line string) {
	match := rgxAssignment.FindStringSubmatch(line)
	if match == nil {
		return
	}
	value := match[2]
	if i := strings.IndexByte(value, '#'); i >= 0 {
		value = value[:i]
	}
	m.set(match[1], value)
}

// includePaths returns the directories listed in the INCLUDE key.
func (m *Makefile) includePaths() []string {
	var paths []string
	for _, p := range strings.Split(m.Get(Include), ";") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// interpret substitutes references using the values stored so far.
func (m *Makefile) interpret(s string) string {
	// the resolver never fails, so neither does the expansion
	out, _ := expand.Expand(s, func(name string) (string, error) {
		return m.Get(name), nil
	})
	return out
}

func (m *Makefile) set(key, value string) {
	key = strings.ToUpper(key)
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = strings.TrimSpace(m.interpret(value))
}

// Name returns the base name of the descriptor file without its extension.
func (m *Makefile) Name() string {
	return m.name
}

// Path returns the path the descriptor was opened with.
func (m *Makefile) Path() string {
	return m.path
}

// Get returns the value of key, or the empty string if it is not defined.
// Keys are case-insensitive.
func (m *Makefile) Get(key string) string {
	return m.items[strings.ToUpper(key)]
}

func (m *Makefile) Has(key string) bool {
	_, ok := m.items[strings.ToUpper(key)]
	return ok
}

// Keys returns the defined keys in the order they were first assigned.
func (m *Makefile) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Fields splits the value of key on whitespace.
func (m *Makefile) Fields(key string) []string {
	return strings.Fields(m.Get(key))
}
