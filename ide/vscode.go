package ide

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zyedidia/stat/project"
	"github.com/zyedidia/stat/toolchain"
)

type vscodeFolder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type vscodeWorkspace struct {
	Folders  []vscodeFolder         `json:"folders"`
	Settings map[string]interface{} `json:"settings"`
	Launch   map[string]interface{} `json:"launch"`
	Tasks    map[string]interface{} `json:"tasks"`
}

type vscode struct {
	p        *project.Project
	cfg      Config
	location string
	ws       vscodeWorkspace
	seen     map[string]bool
}

func newVSCode(p *project.Project, cfg Config) (Writer, error) {
	w := &vscode{
		p:        p,
		cfg:      cfg,
		location: filepath.Join(cfg.Dir, p.Name()),
		seen:     make(map[string]bool),
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	includes := []string{"${workspaceFolder}/dummies"}
	for _, inc := range p.Includes() {
		abs, err := filepath.Abs(inc)
		if err != nil {
			return nil, err
		}
		includes = append(includes, abs)
	}
	definitions := p.Definitions()
	if definitions == nil {
		definitions = []string{}
	}

	w.ws.Settings = map[string]interface{}{
		"search.showLineNumbers":               true,
		"debug.inlineValues":                   true,
		"debug.showBreakpointsInOverviewRuler": true,
		"debug.toolBarLocation":                "docked",
		"terminal.integrated.cwd":              "${workspaceFolder}/../..",
		"C_Cpp.default.includePath":            includes,
		"C_Cpp.default.defines":                definitions,
	}
	w.ws.Launch = map[string]interface{}{
		"configurations": []interface{}{w.debugConfig(cwd)},
	}
	w.ws.Tasks = map[string]interface{}{
		"version": "2.0.0",
		"tasks":   w.tasks(),
	}

	abs, err := filepath.Abs(w.location)
	if err != nil {
		return nil, err
	}
	w.ws.Folders = []vscodeFolder{{Name: w.location, Path: abs}}
	w.seen[filepath.Clean(w.location)] = true
	w.seen[filepath.Clean(cfg.DummiesDir)] = true
	return w, nil
}

func (w *vscode) debugConfig(cwd string) map[string]interface{} {
	tc := w.cfg.Toolchain
	program := filepath.Join(cwd, w.cfg.OutputDir, w.p.OutputName(), "ide_"+w.p.Name(), "bin", tc.Executable(w.p.OutputName()))
	debug := map[string]interface{}{
		"name":            "Debug " + w.p.Name(),
		"cwd":             cwd,
		"program":         program,
		"preLaunchTask":   "Build",
		"request":         "launch",
		"args":            []string{},
		"environment":     []string{},
		"stopAtEntry":     false,
		"externalConsole": false,
	}
	if runtime.GOOS == "windows" {
		debug["type"] = "cppvsdbg"
	} else {
		debug["type"] = "cppdbg"
		debug["MIMode"] = "gdb"
		debug["setupCommands"] = []map[string]interface{}{{
			"description":    "Enable pretty-printing for gdb",
			"text":           "-enable-pretty-printing",
			"ignoreFailures": true,
		}}
	}
	return debug
}

func (w *vscode) tasks() []interface{} {
	tc := w.cfg.Toolchain
	presentation := map[string]interface{}{
		"echo":             false,
		"reveal":           "always",
		"focus":            true,
		"panel":            "shared",
		"showReuseMessage": true,
		"clear":            true,
	}
	options := map[string]interface{}{
		"cwd": "${workspaceFolder}/../..",
	}
	task := func(label string, command []string) map[string]interface{} {
		return map[string]interface{}{
			"label":        label,
			"type":         "shell",
			"presentation": presentation,
			"command":      command[0],
			"args":         command[1:],
			"options":      options,
		}
	}

	build := task("Build", tc.Command(w.p.Makefile()))
	build["problemMatcher"] = map[string]interface{}{
		"owner":        "cpp",
		"fileLocation": []string{"relative", "${workspaceFolder}/../.."},
		"pattern": map[string]interface{}{
			"regexp":   `^(.*):(\d+):(\d+):\s+(warning|error):\s+(.*)$`,
			"file":     1,
			"line":     2,
			"column":   3,
			"severity": 4,
			"message":  5,
		},
	}
	build["group"] = map[string]interface{}{"kind": "build", "isDefault": true}

	clean := task("Clean", tc.Command(w.p.Makefile(), toolchain.CleanTarget))
	clean["problemMatcher"] = []interface{}{}

	rebuild := map[string]interface{}{
		"label":          "Rebuild",
		"dependsOrder":   "sequence",
		"dependsOn":      []string{"Clean", "Build"},
		"problemMatcher": []interface{}{},
	}
	return []interface{}{build, clean, rebuild}
}

func (w *vscode) RootToken() Token {
	return "."
}

func (w *vscode) DirToken(name string, parent Token) Token {
	return filepath.Join(parent.(string), name)
}

// AddFile adds the directory of path to the workspace folders.
func (w *vscode) AddFile(path string, parent Token) {
	dir := filepath.Clean(filepath.Dir(path))
	if w.seen[dir] {
		return
	}
	w.seen[dir] = true
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	w.ws.Folders = append(w.ws.Folders, vscodeFolder{Name: dir, Path: abs})
}

// link points target at source unless target already exists.
func link(source, target string) error {
	if _, err := os.Lstat(target); err == nil {
		return nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("link %s: %w", target, err)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return fmt.Errorf("link %s: %w", target, err)
	}
	return os.Symlink(rel, target)
}

func (w *vscode) Write() error {
	dummies := filepath.Join(w.location, "dummies")
	if err := os.MkdirAll(dummies, os.ModePerm); err != nil {
		return err
	}
	mak := w.p.Makefile()
	if err := link(mak, filepath.Join(w.location, filepath.Base(mak))); err != nil {
		return fmt.Errorf("link makefile: %w", err)
	}
	for _, name := range w.p.Interfaces() {
		if err := link(filepath.Join(w.cfg.DummiesDir, name), filepath.Join(dummies, name)); err != nil {
			return fmt.Errorf("link dummy header: %w", err)
		}
	}

	data, err := json.MarshalIndent(w.ws, "", "   ")
	if err != nil {
		return err
	}
	path := filepath.Join(w.location, w.p.Name()+".vs.code-workspace")
	if err := os.WriteFile(path, data, 0666); err != nil {
		return err
	}
	fmt.Fprintf(w.cfg.Out, "VS-Code Workspace \"%s\" was built\n", path)
	return nil
}
