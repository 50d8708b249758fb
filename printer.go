package stat

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	pb "github.com/schollz/progressbar/v3"
	"github.com/zyedidia/stat/runner"
)

// Printer styles.
const (
	StyleBasic    = "basic"
	StyleSteps    = "steps"
	StyleProgress = "progress"
)

// BasicPrinter writes one status line per finished package.
type BasicPrinter struct {
	w    io.Writer
	lock sync.Mutex
}

func (p *BasicPrinter) SetSteps(int) {}
func (p *BasicPrinter) Start(string) {}

func (p *BasicPrinter) Done(mak string, status runner.Status) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintf(p.w, "%-50s:%s\n", mak, status)
}

// StepPrinter announces each package as it starts. It goes with verbose
// output, where the package's own output follows the announcement.
type StepPrinter struct {
	w     io.Writer
	lock  sync.Mutex
	steps int
	step  int
}

func (p *StepPrinter) SetSteps(steps int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.steps = steps
	p.step = 0
}

func (p *StepPrinter) Start(mak string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.step++
	fmt.Fprintf(p.w, "[%d/%d] %s\n", p.step, p.steps, mak)
}

func (p *StepPrinter) Done(string, runner.Status) {}

type ProgressPrinter struct {
	w     io.Writer
	lock  sync.Mutex
	bar   *pb.ProgressBar
	tasks map[string]bool
}

func (p *ProgressPrinter) SetSteps(steps int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.bar = pb.NewOptions64(int64(steps),
		pb.OptionSetWriter(p.w),
		pb.OptionSetWidth(10),
		pb.OptionShowCount(),
		pb.OptionSpinnerType(14),
		pb.OptionFullWidth(),
		pb.OptionSetPredictTime(false),
		pb.OptionSetDescription("Testing"),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n")
		}),
		pb.OptionSetTheme(pb.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (p *ProgressPrinter) Start(mak string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.tasks[mak] = true
	p.bar.Describe(p.desc())
	p.bar.RenderBlank()
}

func (p *ProgressPrinter) desc() string {
	desc := "Testing"
	for k := range p.tasks {
		desc += " " + fmt.Sprintf("%-40s", k)
		break
	}
	return desc
}

func (p *ProgressPrinter) Done(mak string, status runner.Status) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.tasks, mak)
	if status != runner.Passed {
		// keep failures visible above the bar
		p.bar.Clear()
		fmt.Fprintf(p.w, "\r%-50s:%s\n", mak, status)
	}
	if len(p.tasks) == 0 {
		p.bar.Describe(fmt.Sprintf("Tested %s", mak))
	} else {
		p.bar.Describe(p.desc())
	}
	p.bar.Add(1)
}

// NewPrinter returns the printer for style.
func NewPrinter(style string, w io.Writer) (runner.Printer, error) {
	switch style {
	case StyleBasic:
		return &BasicPrinter{w: w}, nil
	case StyleSteps:
		return &StepPrinter{w: w}, nil
	case StyleProgress:
		return &ProgressPrinter{w: w, tasks: make(map[string]bool)}, nil
	}
	return nil, fmt.Errorf("invalid style '%s' (expected one of %s, %s, %s)", style, StyleBasic, StyleSteps, StyleProgress)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// DefaultStyle picks a style for output to w. Verbose output interleaves the
// packages' own output, so it is announced step by step.
func DefaultStyle(w io.Writer, verbose bool) string {
	switch {
	case verbose:
		return StyleSteps
	case isTerminal(w):
		return StyleProgress
	}
	return StyleBasic
}
