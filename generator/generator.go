// Package generator writes the top-level build script that configures the
// make tool for one product.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zyedidia/stat/toolchain"
)

// ScriptName is the name of the generated script inside the output directory.
const ScriptName = "stat.mak"

type Generator struct {
	ProductDir string
	OutputDir  string
	ToolDir    string
	DummiesDir string
	// Extra assignments written at the top of the script.
	Variables map[string]string
	Toolchain *toolchain.Toolchain
	// Optional. Without a database the script is written every time.
	DB *Database
}

// ProductFile returns the descriptor of product.
func (g *Generator) ProductFile(product string) string {
	return filepath.Join(g.ProductDir, product+".mak")
}

// Script returns the path the script is written to.
func (g *Generator) Script() string {
	return filepath.Join(g.OutputDir, ScriptName)
}

// Render returns the script for product without writing it.
func (g *Generator) Render(product string) (string, error) {
	file := g.ProductFile(product)
	if info, err := os.Stat(file); err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("The product file '%s' was not found", filepath.ToSlash(file))
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	tool, err := filepath.Abs(g.ToolDir)
	if err != nil {
		return "", err
	}

	buf := &strings.Builder{}
	buf.WriteString("# Makefile autogenerated by stat\n")
	keys := make([]string, 0, len(g.Variables))
	for k := range g.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s = %s\n", k, g.Variables[k])
	}
	fmt.Fprintf(buf, "NAME = %s\n", product)
	fmt.Fprintf(buf, "OUTPUT_NAME = %s\n", product)
	fmt.Fprintf(buf, "OUTPUT_EXEC = %s\n", g.Toolchain.Executable(product))
	fmt.Fprintf(buf, "TOOL_DIR = %s\n", filepath.ToSlash(tool))
	fmt.Fprintf(buf, "DUMMIES_DIR = %s\n", filepath.ToSlash(g.DummiesDir))
	fmt.Fprintf(buf, "OUTPUT_DIR = %s\n", filepath.ToSlash(g.OutputDir))
	buf.WriteString("\n")
	fmt.Fprintf(buf, "!INCLUDE %s\n", filepath.ToSlash(abs))
	fmt.Fprintf(buf, "!INCLUDE %s/stat_core.mak\n", filepath.ToSlash(tool))
	return buf.String(), nil
}

// Generate writes the script for product unless the file on disk already
// holds it. It returns the script path and whether the file was written.
func (g *Generator) Generate(product string) (string, bool, error) {
	content, err := g.Render(product)
	if err != nil {
		return "", false, err
	}
	path := g.Script()
	if !g.stale(path, content) {
		return path, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, []byte(content), 0666); err != nil {
		return "", false, err
	}
	if g.DB != nil {
		g.DB.Insert(path, content)
	}
	return path, true, nil
}

func (g *Generator) stale(path, content string) bool {
	if g.DB == nil {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}
	return !g.DB.Has(path, content)
}
