package stat

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

const makExt = ".mak"

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// listMak returns the names of the *.mak files directly inside dir.
func listMak(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == makExt {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// readIgnore returns the non-blank lines of an ignore file. A missing file
// ignores nothing.
func readIgnore(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}

// SelectMakefiles returns the sorted names of the package descriptors in dir
// that match any of patterns (all of them if there are no patterns), leaving
// out those matched by the patterns of the ignore file in dir.
func SelectMakefiles(dir string, patterns []string) ([]string, error) {
	names, err := listMak(dir)
	if err != nil {
		return nil, err
	}
	include, err := compile(patterns)
	if err != nil {
		return nil, err
	}
	ignored, err := readIgnore(filepath.Join(dir, IgnoreFile))
	if err != nil {
		return nil, err
	}
	exclude, err := compile(ignored)
	if err != nil {
		return nil, err
	}

	var selected []string
	for _, name := range names {
		if len(include) > 0 && !matchAny(include, name) {
			continue
		}
		if matchAny(exclude, name) {
			continue
		}
		selected = append(selected, name)
	}
	sort.Strings(selected)
	return selected, nil
}

// Products returns the sorted names of the product descriptors in dir,
// without their extension.
func Products(dir string) ([]string, error) {
	names, err := listMak(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	for i, name := range names {
		names[i] = strings.TrimSuffix(name, makExt)
	}
	sort.Strings(names)
	return names, nil
}

// TargetProducts picks the products to build for: the one named by
// flags.Product, all products, the default product, or all products when
// there is no default.
func TargetProducts(products []string, flags Flags) ([]string, error) {
	if len(products) == 0 {
		return nil, &ErrMessage{msg: fmt.Sprintf("no product configurations found in '%s'", flags.ProductDir)}
	}
	switch {
	case flags.Product != "":
		for _, p := range products {
			if p == flags.Product {
				return []string{p}, nil
			}
		}
		return nil, &ErrMessage{msg: fmt.Sprintf("unknown product '%s' (expected one of %s)", flags.Product, strings.Join(products, ", "))}
	case flags.AllProducts:
		return products, nil
	case flags.DefaultProduct != "":
		return []string{flags.DefaultProduct}, nil
	}
	return products, nil
}
