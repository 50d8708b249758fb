package ide

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zyedidia/stat/project"
)

const (
	fileListName = "si_filelist.txt"
	// Template file names start with this and are renamed after the project.
	templatePrefix = "stat"
)

type sourceInsight struct {
	p         *project.Project
	cfg       Config
	workspace string
	files     []string
}

func newSourceInsight(p *project.Project, cfg Config) (Writer, error) {
	return &sourceInsight{
		p:         p,
		cfg:       cfg,
		workspace: filepath.Join(cfg.Dir, p.Name()),
		files:     []string{p.Makefile()},
	}, nil
}

func (w *sourceInsight) RootToken() Token                        { return nil }
func (w *sourceInsight) DirToken(name string, parent Token) Token { return nil }

func (w *sourceInsight) AddFile(path string, parent Token) {
	w.files = append(w.files, path)
}

func (w *sourceInsight) Write() error {
	msg := "Source-Insight file-list for project \"%s\" has been rebuilt.\n"
	if _, err := os.Stat(w.workspace); os.IsNotExist(err) {
		if err := os.MkdirAll(w.workspace, os.ModePerm); err != nil {
			return err
		}
		if w.cfg.SourceInsightTemplate != "" {
			if err := extract(w.cfg.SourceInsightTemplate, w.workspace, w.p.Name()); err != nil {
				return err
			}
		}
		msg = "Source-Insight project \"%s\" has been built.\n"
	}
	list := filepath.Join(w.workspace, fileListName)
	if err := os.WriteFile(list, []byte(strings.Join(w.files, "\n")), 0666); err != nil {
		return err
	}
	fmt.Fprintf(w.cfg.Out, msg, w.workspace)
	return nil
}

// extract unpacks the archive at src into dir, replacing the template prefix
// in member names with name.
func extract(src, dir, name string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		rel := strings.ReplaceAll(f.Name, templatePrefix, name)
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("template member '%s' escapes the workspace", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
