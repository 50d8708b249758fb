// Package runner builds test packages with the make tool and executes the
// resulting programs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/zyedidia/stat/makefile"
	"github.com/zyedidia/stat/shell"
	"github.com/zyedidia/stat/toolchain"
)

// NamespaceVar is set for the make tool to the name of the package it builds.
const NamespaceVar = "STAT_NAMESPACE"

// Sub-directories of a package's output directory.
var OutputSubDirs = []string{"inc", "obj", "bin"}

type Kind int

const (
	BuildFailure Kind = iota
	ExecutionFailure
)

// Error is a failure of the package under test, as opposed to a failure to
// process the package at all.
type Error struct {
	Kind     Kind
	Makefile string
	msg      string
}

func (e *Error) Error() string {
	return e.msg
}

type Options struct {
	Toolchain *toolchain.Toolchain
	OutputDir string
	// Verbose echoes all output to Out.
	Verbose  bool
	Out      io.Writer
	Makefile makefile.Options
}

// A Runner builds and runs one package for one product.
type Runner struct {
	path    string
	product string
	mk      *makefile.Makefile
	opts    Options
	log     *lineLog
}

// New parses the package descriptor at path.
func New(path, product string, opts Options) (*Runner, error) {
	mk, err := makefile.Open(path, opts.Makefile)
	if err != nil {
		return nil, err
	}
	if opts.Toolchain == nil {
		if opts.Toolchain, err = toolchain.New(""); err != nil {
			return nil, err
		}
	}
	r := &Runner{
		path:    path,
		product: product,
		mk:      mk,
		opts:    opts,
		log:     &lineLog{},
	}
	if opts.Verbose && opts.Out != nil {
		r.log.echo = opts.Out
	}
	return r, nil
}

// Name returns the package name.
func (r *Runner) Name() string {
	return r.mk.Name()
}

func (r *Runner) Makefile() string {
	return r.path
}

// OutputDir returns the directory the package is built into.
func (r *Runner) OutputDir(elem ...string) string {
	return filepath.Join(append([]string{r.opts.OutputDir, r.product, r.mk.Name()}, elem...)...)
}

// Executable returns the path of the program the build produces.
func (r *Runner) Executable() string {
	name := r.mk.Get(makefile.Exec)
	if name == "" {
		name = r.opts.Toolchain.Executable(r.mk.Name())
	}
	return r.OutputDir("bin", name)
}

// CommandLine returns the shell command that builds targets.
func (r *Runner) CommandLine(targets ...string) string {
	return NamespaceVar + "=" + shellquote.Join(r.mk.Name()) + " " + r.opts.Toolchain.CommandLine(r.path, targets...)
}

// Compile builds the given targets of the package, or its default target.
func (r *Runner) Compile(ctx context.Context, targets ...string) error {
	err := shell.Run(ctx, r.CommandLine(targets...), r.log, r.log)
	r.log.flush()
	if err != nil {
		return &Error{
			Kind:     BuildFailure,
			Makefile: r.path,
			msg:      fmt.Sprintf("Package \"%s\" failed to compile.", r.path),
		}
	}
	return nil
}

// Run executes the built program.
func (r *Runner) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.Executable())
	cmd.Stdout = r.log
	cmd.Stderr = r.log
	err := cmd.Run()
	r.log.flush()
	if err == nil {
		return nil
	}

	var msg string
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		code := uint32(exit.ExitCode())
		msg = fmt.Sprintf("The executable of package \"%s\" failed with error-code %#X.", r.path, code)
	} else {
		msg = fmt.Sprintf("The executable of package \"%s\" could not be started: %v", r.path, err)
	}
	r.log.add(msg + "\n")
	return &Error{
		Kind:     ExecutionFailure,
		Makefile: r.path,
		msg:      msg,
	}
}

// Clean removes the build products of the package.
func (r *Runner) Clean() error {
	for _, sub := range OutputSubDirs {
		if err := os.RemoveAll(r.OutputDir(sub)); err != nil {
			return err
		}
	}
	return nil
}

// Log returns the output collected so far, one line per entry with its line
// ending.
func (r *Runner) Log() []string {
	return r.log.get()
}

// WriteLog stores the log as <dir>/<name>.log.
func (r *Runner) WriteLog(dir string) error {
	return SaveLog(dir, r.path, r.Log())
}

// SaveLog writes lines to the log file in dir of the package at path.
func SaveLog(dir, path string, lines []string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".log"
	return os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "")), 0666)
}
