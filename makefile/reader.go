package makefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/stack"
)

// Error is returned for every failure to read or interpret a descriptor.
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}

func errorf(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// A source is one open file of the inclusion chain.
type source struct {
	path   string
	abs    string
	file   *os.File
	reader *bufio.Reader
	eof    bool
}

func openSource(path string) (*source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errorf("Cannot open '%s': %v", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errorf("Cannot open '%s': %v", path, err)
	}
	return &source{
		path:   path,
		abs:    abs,
		file:   f,
		reader: bufio.NewReader(f),
	}, nil
}

// next returns the next logical line of this file, joining physical lines
// that end with a backslash. Lines may be of any length.
func (s *source) next() (string, bool, error) {
	line := ""
	pending := false
	for !s.eof {
		physical, err := s.reader.ReadString('\n')
		if err == io.EOF {
			s.eof = true
			if physical == "" {
				break
			}
		} else if err != nil {
			return "", false, errorf("Cannot read '%s': %v", s.path, err)
		}
		line += strings.TrimRight(physical, " \t\r\n\f\v")
		if strings.HasSuffix(line, "\\") {
			line = line[:len(line)-1]
			pending = true
			continue
		}
		return line, true, nil
	}
	// a continuation at the end of the file still counts as a line
	if pending && line != "" {
		return line, true, nil
	}
	return "", false, nil
}

// Reader yields the logical lines of a descriptor. Files included while
// reading are spliced in at the point of inclusion.
type Reader struct {
	sources     *stack.Stack[*source]
	open        mapset.Set[string] // absolute paths in the chain
	searchPaths []string
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NewReader opens the descriptor at path. The search paths are used to find
// included files that are not next to the file including them.
func NewReader(path string, searchPaths []string) (*Reader, error) {
	if !isFile(path) {
		return nil, errorf("Makefile '%s' doesn't exist!", path)
	}
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		sources:     stack.New[*source](),
		open:        mapset.New[string](),
		searchPaths: searchPaths,
	}
	r.push(src)
	return r, nil
}

// Next returns the next logical line. The boolean is false once every file
// has been read.
func (r *Reader) Next() (string, bool, error) {
	for r.sources.Size() > 0 {
		src := r.sources.Peek()
		line, ok, err := src.next()
		if err != nil {
			return "", false, err
		}
		if ok {
			return line, true, nil
		}
		r.pop().file.Close()
	}
	return "", false, nil
}

func (r *Reader) push(src *source) {
	r.sources.Push(src)
	r.open.Put(src.abs)
}

func (r *Reader) pop() *source {
	src := r.sources.Pop()
	r.open.Remove(src.abs)
	return src
}

// CurrentFile returns the path of the innermost file being read.
func (r *Reader) CurrentFile() string {
	if r.sources.Size() == 0 {
		return ""
	}
	return r.sources.Peek().path
}

// Include starts reading name before the remaining lines of the current file.
// Extra search paths are tried after the reader's own ones.
func (r *Reader) Include(name string, extra []string) error {
	path, err := r.find(name, extra)
	if err != nil {
		return err
	}
	src, err := openSource(path)
	if err != nil {
		return err
	}
	if r.open.Has(src.abs) {
		src.file.Close()
		return errorf("Recursive inclusion of '%s' within '%s'.", name, r.CurrentFile())
	}
	r.push(src)
	return nil
}

func (r *Reader) find(name string, extra []string) (string, error) {
	current := r.CurrentFile()
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
	} else {
		if p := filepath.Join(filepath.Dir(current), name); isFile(p) {
			return p, nil
		}
		for _, dir := range r.searchPaths {
			if p := filepath.Join(dir, name); dir != "" && isFile(p) {
				return p, nil
			}
		}
		for _, dir := range extra {
			if p := filepath.Join(dir, name); dir != "" && isFile(p) {
				return p, nil
			}
		}
	}
	return "", errorf("Attempt to include not existing file '%s' within '%s'.", name, current)
}

// Close releases every file that is still open.
func (r *Reader) Close() error {
	var first error
	for r.sources.Size() > 0 {
		if err := r.pop().file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
