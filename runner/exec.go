package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/zyedidia/stat/toolchain"
)

type Status string

const (
	Passed  Status = "PASSED"
	Failed  Status = "FAILED"
	Crashed Status = "CRASHED"
)

// Result is the outcome of one package.
type Result struct {
	Makefile string
	Status   Status
	Info     string
	// Output of a failed package.
	Log []string
}

// A Printer is told about packages as the executor works through them. It
// must be safe for concurrent use.
type Printer interface {
	SetSteps(steps int)
	Start(makefile string)
	Done(makefile string, status Status)
}

// Cleaning levels.
const (
	NoClean = iota
	Rebuild // build the rebuild target instead of the default one
	Purge   // remove previous outputs, then build
)

type ExecOptions struct {
	Threads   int
	Cleaning  int
	BuildOnly bool // don't run the built programs
}

type Executor struct {
	product string
	printer Printer
	ropts   Options
	opts    ExecOptions

	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	index int
	path  string
}

type nopPrinter struct{}

func (nopPrinter) SetSteps(int)        {}
func (nopPrinter) Start(string)        {}
func (nopPrinter) Done(string, Status) {}

// NewExecutor returns an executor for the packages of product. A nil printer
// discards progress.
func NewExecutor(product string, printer Printer, ropts Options, opts ExecOptions) *Executor {
	if printer == nil {
		printer = nopPrinter{}
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Executor{
		product: product,
		printer: printer,
		ropts:   ropts,
		opts:    opts,
	}
}

// Exec builds and runs every package and returns the results in the order of
// packages.
func (e *Executor) Exec(ctx context.Context, packages []string) []Result {
	results := make([]Result, len(packages))
	e.printer.SetSteps(len(packages))

	e.jobs = make(chan job, len(packages))
	for i := 0; i < e.opts.Threads; i++ {
		e.wg.Add(1)
		go e.runServer(ctx, results)
	}
	for i, p := range packages {
		e.jobs <- job{index: i, path: p}
	}
	close(e.jobs)
	e.wg.Wait()
	return results
}

func (e *Executor) runServer(ctx context.Context, results []Result) {
	defer e.wg.Done()
	for j := range e.jobs {
		e.printer.Start(j.path)
		res := e.execPackage(ctx, j.path)
		results[j.index] = res
		e.printer.Done(j.path, res.Status)
	}
}

func (e *Executor) execPackage(ctx context.Context, path string) Result {
	r, err := New(path, e.product, e.ropts)
	if err != nil {
		return Result{Makefile: path, Status: Crashed, Info: err.Error()}
	}
	err = e.build(ctx, r)

	var rerr *Error
	switch {
	case err == nil:
		return Result{Makefile: path, Status: Passed}
	case errors.As(err, &rerr):
		return Result{Makefile: path, Status: Failed, Info: rerr.Error(), Log: r.Log()}
	default:
		return Result{Makefile: path, Status: Crashed, Info: err.Error()}
	}
}

func (e *Executor) build(ctx context.Context, r *Runner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var targets []string
	switch e.opts.Cleaning {
	case NoClean:
	case Rebuild:
		targets = append(targets, toolchain.RebuildTarget)
	default:
		if err := r.Clean(); err != nil {
			return err
		}
	}
	if err := r.Compile(ctx, targets...); err != nil {
		return err
	}
	if e.opts.BuildOnly {
		return nil
	}
	return r.Run(ctx)
}
