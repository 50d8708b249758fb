package stat_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/stat"
)

// The make tool is "sh", so each package descriptor is also the script that
// builds it.
const passing = `OUTPUT_EXEC=pass_exec
mkdir -p output/prod/pass/bin
printf '#!/bin/sh\necho running\n' > output/prod/pass/bin/pass_exec
chmod +x output/prod/pass/bin/pass_exec
`

const crashing = `OUTPUT_EXEC=crash_exec
mkdir -p output/prod/crash/bin
printf '#!/bin/sh\necho about to fail\nexit 3\n' > output/prod/crash/bin/crash_exec
chmod +x output/prod/crash/bin/crash_exec
`

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// workspace creates a project directory and restores the working directory
// when the test ends, since Run changes into the project.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX environment")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(wd) })
	for name, content := range files {
		write(t, filepath.Join(dir, name), content)
	}
	return dir
}

func flags(dir string) stat.Flags {
	return stat.Flags{
		RunDir:  dir,
		Make:    "sh",
		ToolDir: dir,
		Silent:  true,
		Style:   stat.StyleBasic,
	}
}

func TestRun(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pass.mak":          passing,
		"crash.mak":         crashing,
		"products/prod.mak": "PRODUCT_DEFINES = PROD\n",
		"logs/stale.log":    "left over\n",
	})

	out := &bytes.Buffer{}
	err := stat.Run(out, nil, flags(dir))

	var failed *stat.FailedError
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, []string{"crash.mak"}, failed.Packages)
	assert.Equal(t, "The following packages failed:\n\tcrash.mak", err.Error())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"crash.mak                                         :FAILED",
		"pass.mak                                          :PASSED",
		strings.Repeat("=", 70),
		"Total:  2 Runs  1 Passed  1 Failed",
	}, lines)

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report map[string]map[string]stat.Record
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "PASSED", string(report["prod"]["pass.mak"].Status))
	assert.Equal(t, "FAILED", string(report["prod"]["crash.mak"].Status))
	assert.Contains(t, report["prod"]["crash.mak"].Info, "failed with error-code 0X3.")

	log, err := os.ReadFile(filepath.Join(dir, "logs", "crash.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "about to fail")
	assert.NoFileExists(t, filepath.Join(dir, "logs", "stale.log"))
	assert.NoFileExists(t, filepath.Join(dir, "logs", "pass.log"))

	script, err := os.ReadFile(filepath.Join(dir, "output", "stat.mak"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "NAME = prod\n")
}

func TestRunPatterns(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pass.mak":          passing,
		"crash.mak":         crashing,
		"products/prod.mak": "",
	})

	out := &bytes.Buffer{}
	require.NoError(t, stat.Run(out, []string{"pa*"}, flags(dir)))
	assert.Contains(t, out.String(), "Total:  1 Runs  1 Passed  0 Failed")
}

func TestRunBuildOnly(t *testing.T) {
	dir := workspace(t, map[string]string{
		"crash.mak":         crashing,
		"products/prod.mak": "",
	})

	f := flags(dir)
	f.BuildOnly = true
	require.NoError(t, stat.Run(&bytes.Buffer{}, nil, f))
	assert.FileExists(t, filepath.Join(dir, "output", "prod", "crash", "bin", "crash_exec"))
}

func TestRunYAMLReport(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pass.mak":          passing,
		"products/prod.mak": "",
	})

	f := flags(dir)
	f.Report = "reports/result.yaml"
	require.NoError(t, stat.Run(&bytes.Buffer{}, nil, f))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "result.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "prod:")
	assert.Contains(t, string(data), "Status: PASSED")
}

func TestRunVerbose(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pass.mak":          passing,
		"products/prod.mak": "",
	})

	f := flags(dir)
	f.Silent = false
	f.Style = ""
	out := &bytes.Buffer{}
	require.NoError(t, stat.Run(out, nil, f))
	assert.Contains(t, out.String(), "[1/1] pass.mak\n")
	assert.Contains(t, out.String(), "running\n")
	assert.NotContains(t, out.String(), ":PASSED")
}

func TestRunErrors(t *testing.T) {
	t.Run("no makefiles", func(t *testing.T) {
		dir := workspace(t, map[string]string{"products/prod.mak": ""})
		assert.ErrorIs(t, stat.Run(&bytes.Buffer{}, nil, flags(dir)), stat.ErrNoMakefiles)
	})
	t.Run("no products", func(t *testing.T) {
		dir := workspace(t, map[string]string{"pass.mak": passing})
		err := stat.Run(&bytes.Buffer{}, nil, flags(dir))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no product configurations found")
	})
	t.Run("unknown product", func(t *testing.T) {
		dir := workspace(t, map[string]string{"pass.mak": passing, "products/prod.mak": ""})
		f := flags(dir)
		f.Product = "other"
		err := stat.Run(&bytes.Buffer{}, nil, f)
		require.Error(t, err)
		assert.Equal(t, "unknown product 'other' (expected one of prod)", err.Error())
	})
	t.Run("small gear", func(t *testing.T) {
		dir := workspace(t, map[string]string{"pass.mak": passing, "products/prod.mak": ""})
		f := flags(dir)
		f.Gear = 1
		err := stat.Run(&bytes.Buffer{}, nil, f)
		require.Error(t, err)
		assert.Equal(t, "Minimal gear is 2", err.Error())
	})
	t.Run("ide for several makefiles", func(t *testing.T) {
		dir := workspace(t, map[string]string{"pass.mak": passing, "crash.mak": crashing, "products/prod.mak": ""})
		f := flags(dir)
		f.IDE = "vscode"
		err := stat.Run(&bytes.Buffer{}, nil, f)
		require.Error(t, err)
		assert.Equal(t, "'--ide vscode' can be invoked for a single makefile only", err.Error())
	})
	t.Run("ide for several products", func(t *testing.T) {
		dir := workspace(t, map[string]string{"pass.mak": passing, "products/a.mak": "", "products/b.mak": ""})
		f := flags(dir)
		f.IDE = "vscode"
		err := stat.Run(&bytes.Buffer{}, nil, f)
		require.Error(t, err)
		assert.Equal(t, "'--ide vscode' can be invoked for a single product only", err.Error())
	})
}

func TestRunIDE(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pkg.mak":           "SOURCES = src/main.c\nINCLUDES = inc\n",
		"src/main.c":        "int main(void) { return 0; }\n",
		"inc/api.h":         "",
		"products/prod.mak": "",
	})

	f := flags(dir)
	f.IDE = "sourceinsight"
	out := &bytes.Buffer{}
	require.NoError(t, stat.Run(out, nil, f))

	list, err := os.ReadFile(filepath.Join(dir, "ide", "pkg", "si_filelist.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(list), "main.c")
	assert.Contains(t, string(list), "api.h")
	assert.NoFileExists(t, filepath.Join(dir, "report.json"))
}

func TestRunVSCode(t *testing.T) {
	dir := workspace(t, map[string]string{
		"pkg.mak":           "SOURCES = src/main.c\n",
		"src/main.c":        "int main(void) { return 0; }\n",
		"products/prod.mak": "",
	})

	f := flags(dir)
	f.IDE = "vscode"
	out := &bytes.Buffer{}
	require.NoError(t, stat.Run(out, nil, f))

	assert.FileExists(t, filepath.Join(dir, "ide", "pkg", "pkg.vs.code-workspace"))
	target, err := os.Readlink(filepath.Join(dir, "ide", "pkg", "pkg.mak"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("..", "..", "pkg.mak"), target)
	assert.Contains(t, out.String(), "VS-Code Workspace")
}
