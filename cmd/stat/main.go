package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zyedidia/stat"
	"github.com/zyedidia/stat/ide"
	"github.com/zyedidia/stat/info"
)

// exclusive fails when more than one of the given flags was set.
func exclusive(names ...string) error {
	var set []string
	for _, n := range names {
		if pflag.CommandLine.Changed(n) {
			set = append(set, "--"+n)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("flags %s are mutually exclusive", strings.Join(set, ", "))
	}
	return nil
}

func main() {
	run := pflag.BoolP("run", "r", false, "compile and execute the test packages (default)")
	buildOnly := pflag.BoolP("build-only", "b", false, "only compile, do not run the test package executables")
	ideName := pflag.String("ide", "", fmt.Sprintf("write an IDE project for the makefile (%s)", strings.Join(ide.Names(), ", ")))
	vscode := pflag.Bool("vs-code", false, "write a VS Code workspace for the makefile")
	msvs := pflag.Bool("visual-studio", false, "write a Visual Studio solution for the makefile")
	si := pflag.Bool("source-insight", false, "write a Source Insight project for the makefile")
	cleaning := pflag.CountP("clean-build", "c", "increase the cleaning preceding the build (-c rebuild, -cc build from scratch)")
	silent := pflag.BoolP("silent", "s", false, "suppress detailed output")
	gear := pflag.IntP("gear", "g", 0, fmt.Sprintf("process packages in parallel (%d-N, default %d); implies silent mode and -c", stat.MinGear, stat.DefaultGear()))
	product := pflag.StringP("product", "p", "", "product to build for")
	all := pflag.BoolP("all-products", "a", false, "build for all products")
	rundir := pflag.StringP("directory", "C", "", "run command from directory")
	style := pflag.String("style", "", "printer style to use (basic, steps, progress)")
	version := pflag.BoolP("version", "V", false, "show version information")
	help := pflag.BoolP("help", "h", false, "show this help message")

	pflag.Lookup("gear").NoOptDefVal = strconv.Itoa(stat.ImplicitGear)

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *version {
		fmt.Println("stat version", info.Version)
		os.Exit(0)
	}

	for _, group := range [][]string{
		{"run", "build-only", "ide", "vs-code", "visual-studio", "source-insight"},
		{"silent", "gear"},
		{"product", "all-products"},
	} {
		if err := exclusive(group...); err != nil {
			fmt.Fprintf(os.Stderr, "stat: %s\n", err)
			pflag.Usage()
			os.Exit(2)
		}
	}

	switch {
	case *vscode:
		*ideName = "vscode"
	case *msvs:
		*ideName = "msvs"
	case *si:
		*ideName = "sourceinsight"
	}

	flags := stat.Flags{
		RunDir:      *rundir,
		BuildOnly:   *buildOnly && !*run,
		IDE:         *ideName,
		Cleaning:    *cleaning,
		Silent:      *silent,
		Gear:        *gear,
		Product:     *product,
		AllProducts: *all,
		Style:       *style,
	}

	dir := *rundir
	if dir == "" {
		dir = "."
	}
	if path := stat.FindConfig(dir); path != "" {
		uf, err := stat.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stat: %s: %s\n", filepath.ToSlash(path), err)
			os.Exit(1)
		}
		flags.Apply(uf, pflag.CommandLine.Changed)
	}

	err := stat.Run(os.Stdout, pflag.Args(), flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stat: %s\n", err)
	}
	if flags.IDE != "" {
		if err != nil {
			os.Exit(1)
		}
		return
	}
	var failed *stat.FailedError
	if err == nil {
		fmt.Println("\n=== PASSED ===")
	} else if errors.As(err, &failed) {
		fmt.Println("\n=== FAILED ===")
		os.Exit(1)
	} else {
		os.Exit(1)
	}
}
