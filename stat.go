// Package stat builds the test packages of a project for its products and
// runs them.
package stat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/zyedidia/stat/generator"
	"github.com/zyedidia/stat/ide"
	"github.com/zyedidia/stat/makefile"
	"github.com/zyedidia/stat/project"
	"github.com/zyedidia/stat/runner"
	"github.com/zyedidia/stat/toolchain"
)

// Directory and file names used when nothing else is configured.
const (
	DefaultProducts = "products"
	DefaultOutput   = "output"
	DefaultLogs     = "logs"
	DefaultReport   = "report.json"
	IgnoreFile      = ".statignore"
	ConfigFile      = ".statconfig"
)

// MinGear is the smallest number of packages processed in parallel when
// parallel processing is requested at all.
const MinGear = 2

// ImplicitGear asks for the gear of DefaultGear.
const ImplicitGear = -1

// Flags for modifying the behavior of stat.
type Flags struct {
	RunDir    string
	BuildOnly bool
	// Name of an IDE to write a project for instead of building.
	IDE         string
	Cleaning    int
	Silent      bool
	Gear        int
	Product     string
	AllProducts bool
	Style       string

	DefaultProduct string
	ProductDir     string
	OutputDir      string
	DummiesDir     string
	IDEDir         string
	LogDir         string
	ToolDir        string
	Make           string
	SearchPaths    []string
	Report         string
	CacheDir       string
	Variables      map[string]string
	MSVS           ide.MSVSConfig
	SITemplate     string
}

var ErrNoMakefiles = errors.New("no makefiles to process")

type ErrMessage struct {
	msg string
}

func (e *ErrMessage) Error() string {
	return e.msg
}

// FailedError lists the packages that did not pass.
type FailedError struct {
	Packages []string
}

func (e *FailedError) Error() string {
	return "The following packages failed:\n\t" + strings.Join(e.Packages, "\n\t")
}

// DefaultGear returns the gear used when it is requested without a value.
func DefaultGear() int {
	if n := runtime.NumCPU(); n > MinGear {
		return n - 1
	}
	return MinGear
}

// DefaultToolDir returns the directory of the running executable, where the
// core rules are expected.
func DefaultToolDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func (f Flags) withDefaults() Flags {
	if f.ProductDir == "" {
		f.ProductDir = DefaultProducts
	}
	if f.OutputDir == "" {
		f.OutputDir = DefaultOutput
	}
	if f.DummiesDir == "" {
		f.DummiesDir = project.DummiesDir
	}
	if f.IDEDir == "" {
		f.IDEDir = ide.DefaultDir
	}
	if f.LogDir == "" {
		f.LogDir = DefaultLogs
	}
	if f.Report == "" {
		f.Report = DefaultReport
	}
	if f.ToolDir == "" {
		f.ToolDir = DefaultToolDir()
	}
	return f
}

type plan struct {
	threads  int
	verbose  bool
	cleaning int
}

// newPlan applies the rules that tie the requested gear to the output and
// cleaning behavior.
func newPlan(flags Flags, makefiles int) (plan, error) {
	gear := flags.Gear
	if gear == ImplicitGear {
		gear = DefaultGear()
	}
	if gear != 0 && gear < MinGear {
		return plan{}, &ErrMessage{msg: fmt.Sprintf("Minimal gear is %d", MinGear)}
	}
	if n := runtime.NumCPU(); gear > n {
		gear = n
	}
	processes := gear
	if makefiles < processes {
		processes = makefiles
	}
	p := plan{
		threads:  processes,
		verbose:  !flags.Silent && processes < MinGear,
		cleaning: flags.Cleaning,
	}
	if processes >= MinGear {
		p.cleaning = runner.Rebuild
	}
	if p.threads < 1 {
		p.threads = 1
	}
	return p, nil
}

func openDatabase(flags Flags) (*generator.Database, error) {
	switch flags.CacheDir {
	case "", ".":
		return generator.NewDatabase(filepath.Join(flags.OutputDir, ".stat")), nil
	case "$cache":
		flags.CacheDir = filepath.Join(xdg.CacheHome, "stat")
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return generator.NewCacheDatabase(flags.CacheDir, wd), nil
}

// Run processes the makefiles of the working directory (or flags.RunDir)
// selected by args, a list of file name patterns. Output is written to out.
func Run(out io.Writer, args []string, flags Flags) error {
	if flags.RunDir != "" {
		if err := os.Chdir(flags.RunDir); err != nil {
			return err
		}
	}
	flags = flags.withDefaults()

	makefiles, err := SelectMakefiles(".", args)
	if err != nil {
		return err
	}
	if len(makefiles) == 0 {
		return ErrNoMakefiles
	}
	products, err := Products(flags.ProductDir)
	if err != nil {
		return err
	}
	targets, err := TargetProducts(products, flags)
	if err != nil {
		return err
	}
	p, err := newPlan(flags, len(makefiles))
	if err != nil {
		return err
	}

	tc, err := toolchain.New(flags.Make)
	if err != nil {
		return err
	}
	db, err := openDatabase(flags)
	if err != nil {
		return err
	}
	gen := &generator.Generator{
		ProductDir: flags.ProductDir,
		OutputDir:  flags.OutputDir,
		ToolDir:    flags.ToolDir,
		DummiesDir: flags.DummiesDir,
		Variables:  flags.Variables,
		Toolchain:  tc,
		DB:         db,
	}
	defer func() {
		if err := db.Save(); err != nil {
			log.Printf("error saving generator database: %v", err)
		}
	}()

	mopts := makefile.Options{SearchPaths: flags.SearchPaths}

	if flags.IDE != "" {
		return writeIDE(out, flags, makefiles, targets, gen, tc, mopts)
	}

	if err := os.RemoveAll(flags.LogDir); err != nil {
		return err
	}

	ropts := runner.Options{
		Toolchain: tc,
		OutputDir: flags.OutputDir,
		Verbose:   p.verbose,
		Out:       out,
		Makefile:  mopts,
	}
	eopts := runner.ExecOptions{
		Threads:   p.threads,
		Cleaning:  p.cleaning,
		BuildOnly: flags.BuildOnly,
	}

	style := flags.Style
	if style == "" {
		style = DefaultStyle(out, p.verbose)
	}

	report := NewReport()
	for _, product := range targets {
		report.AddProduct(product)
		if _, _, err := gen.Generate(product); err != nil {
			return err
		}
		printer, err := NewPrinter(style, out)
		if err != nil {
			return err
		}
		executor := runner.NewExecutor(product, printer, ropts, eopts)
		for _, res := range executor.Exec(context.Background(), makefiles) {
			report.Add(product, res)
			if res.Status != runner.Passed && len(res.Log) > 0 {
				if err := runner.SaveLog(flags.LogDir, res.Makefile, res.Log); err != nil {
					return err
				}
			}
		}
	}

	if err := report.Write(flags.Report); err != nil {
		return err
	}
	report.Summary(out)

	if failed := report.Failed(); len(failed) > 0 {
		return &FailedError{Packages: failed}
	}
	return nil
}

func writeIDE(out io.Writer, flags Flags, makefiles, targets []string, gen *generator.Generator, tc *toolchain.Toolchain, mopts makefile.Options) error {
	if len(makefiles) != 1 {
		return &ErrMessage{msg: fmt.Sprintf("'--ide %s' can be invoked for a single makefile only", flags.IDE)}
	}
	if len(targets) != 1 {
		return &ErrMessage{msg: fmt.Sprintf("'--ide %s' can be invoked for a single product only", flags.IDE)}
	}
	if _, _, err := gen.Generate(targets[0]); err != nil {
		return err
	}
	proj, err := project.Open(makefiles[0], project.Options{
		Makefile:   mopts,
		DummiesDir: flags.DummiesDir,
	})
	if err != nil {
		return err
	}
	w, err := ide.New(flags.IDE, proj, ide.Config{
		Dir:                   flags.IDEDir,
		OutputDir:             flags.OutputDir,
		DummiesDir:            flags.DummiesDir,
		Toolchain:             tc,
		MSVS:                  flags.MSVS,
		SourceInsightTemplate: flags.SITemplate,
		Out:                   out,
	})
	if err != nil {
		return err
	}
	return ide.WriteWorkspace(w, proj, flags.IDEDir)
}
