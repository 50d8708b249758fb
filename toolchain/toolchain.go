// Package toolchain describes the external make tool that builds packages.
package toolchain

import (
	"errors"
	"runtime"

	"github.com/kballard/go-shellquote"
)

// Targets understood by the runtime's core rules.
const (
	RebuildTarget = "default_rebuild"
	CleanTarget   = "clean"
)

var ErrNoMake = errors.New("empty make command")

type Toolchain struct {
	make    []string
	windows bool
}

// DefaultMake returns the make command line used when none is configured.
func DefaultMake() string {
	if runtime.GOOS == "windows" {
		return "nmake /NOLOGO /F"
	}
	return "make -f"
}

// New parses makeCommand, a shell-quoted command line that is completed with
// the makefile to build. An empty command selects DefaultMake.
func New(makeCommand string) (*Toolchain, error) {
	if makeCommand == "" {
		makeCommand = DefaultMake()
	}
	words, err := shellquote.Split(makeCommand)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrNoMake
	}
	return &Toolchain{
		make:    words,
		windows: runtime.GOOS == "windows",
	}, nil
}

// MakePath returns the make program itself.
func (tc *Toolchain) MakePath() string {
	return tc.make[0]
}

// Command returns the argument list that builds targets of makefile.
func (tc *Toolchain) Command(makefile string, targets ...string) []string {
	cmd := make([]string, 0, len(tc.make)+1+len(targets))
	cmd = append(cmd, tc.make...)
	cmd = append(cmd, makefile)
	return append(cmd, targets...)
}

// CommandLine is Command quoted for a POSIX shell.
func (tc *Toolchain) CommandLine(makefile string, targets ...string) string {
	return shellquote.Join(tc.Command(makefile, targets...)...)
}

// Executable returns the file name of the program called name on this
// platform.
func (tc *Toolchain) Executable(name string) string {
	if tc.windows {
		return name + ".exe"
	}
	return name
}

// ExecSuffix is the suffix Executable adds.
func (tc *Toolchain) ExecSuffix() string {
	return tc.Executable("")
}
