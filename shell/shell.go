// Package shell runs command lines through an embedded POSIX shell, so the
// same quoting rules apply on every platform.
package shell

import (
	"context"
	"io"
	"strings"

	"mvdan.cc/sh/interp"
	"mvdan.cc/sh/syntax"
)

// Run executes cmd with no standard input. It returns an error if cmd does
// not parse or exits with a non-zero status.
func Run(ctx context.Context, cmd string, stdout, stderr io.Writer) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return err
	}
	r, err := interp.New(interp.StdIO(nil, stdout, stderr))
	if err != nil {
		return err
	}
	r.Reset()
	return r.Run(ctx, prog)
}
