package stat

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zyedidia/stat/runner"
	"gopkg.in/yaml.v3"
)

// Record is the outcome of one package for one product.
type Record struct {
	Status runner.Status `json:"Status" yaml:"Status"`
	Info   string        `json:"Info" yaml:"Info"`
}

// A Report collects the records of every package per product.
type Report struct {
	products map[string]map[string]Record
	failed   []string
	runs     int
	passed   int
}

func NewReport() *Report {
	return &Report{
		products: make(map[string]map[string]Record),
	}
}

// AddProduct starts the section of product. A product without packages still
// shows up in the written report.
func (r *Report) AddProduct(product string) {
	if _, ok := r.products[product]; !ok {
		r.products[product] = make(map[string]Record)
	}
}

// Add records res for product.
func (r *Report) Add(product string, res runner.Result) {
	r.AddProduct(product)
	r.products[product][res.Makefile] = Record{Status: res.Status, Info: res.Info}
	r.runs++
	if res.Status == runner.Passed {
		r.passed++
		return
	}
	for _, f := range r.failed {
		if f == res.Makefile {
			return
		}
	}
	r.failed = append(r.failed, res.Makefile)
}

// Get returns the record of mak for product.
func (r *Report) Get(product, mak string) (Record, bool) {
	rec, ok := r.products[product][mak]
	return rec, ok
}

// Failed returns every package that failed for at least one product, in the
// order the failures were added.
func (r *Report) Failed() []string {
	failed := make([]string, len(r.failed))
	copy(failed, r.failed)
	return failed
}

func (r *Report) Runs() int   { return r.runs }
func (r *Report) Passed() int { return r.passed }

// Marshal encodes the report as YAML for .yaml and .yml paths and as JSON
// otherwise.
func (r *Report) Marshal(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(r.products)
	}
	return json.MarshalIndent(r.products, "", "   ")
}

func (r *Report) Write(path string) error {
	data, err := r.Marshal(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0666)
}

// Summary prints the totals of the report.
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Total:  %d Runs  %d Passed  %d Failed\n", r.runs, r.passed, r.runs-r.passed)
}
