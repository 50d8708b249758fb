package stat

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// UserConfig is the location of the per-user configuration, relative to the
// xdg config directories.
const UserConfig = "stat/config.toml"

// Flags that may be automatically set in a .statconfig file.
type UserFlags struct {
	DefaultProduct *string `toml:"default_product"`
	Products       *string
	Output         *string
	Dummies        *string
	IDE            *string `toml:"ide"`
	Logs           *string
	ToolDir        *string `toml:"tool_dir"`
	Make           *string
	Include        *[]string
	Report         *string
	CacheDir       *string `toml:"cache"`
	Threads        *int
	Silent         *bool
	Style          *string
	Variables      map[string]string

	MSVS *struct {
		Year    *int
		Version *string
		NMake   *string `toml:"nmake"`
	} `toml:"msvs"`
	SourceInsight *struct {
		Template *string
	} `toml:"sourceinsight"`
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindConfig returns the configuration file for the project in dir: its
// .statconfig, or else the user's configuration. The empty string means there
// is none.
func FindConfig(dir string) string {
	if p := filepath.Join(dir, ConfigFile); exists(p) {
		return p
	}
	if p, err := xdg.SearchConfigFile(UserConfig); err == nil {
		return p
	}
	return ""
}

func LoadConfig(path string) (*UserFlags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var uf UserFlags
	if err := toml.Unmarshal(data, &uf); err != nil {
		return nil, err
	}
	return &uf, nil
}

// Apply copies the settings of u into f. Settings that also have a command
// line flag are left alone when changed reports that the flag was given.
func (f *Flags) Apply(u *UserFlags, changed func(flag string) bool) {
	fromConfig := func(flag string) bool {
		return changed == nil || !changed(flag)
	}
	str := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	str(&f.DefaultProduct, u.DefaultProduct)
	str(&f.ProductDir, u.Products)
	str(&f.OutputDir, u.Output)
	str(&f.DummiesDir, u.Dummies)
	str(&f.IDEDir, u.IDE)
	str(&f.LogDir, u.Logs)
	str(&f.ToolDir, u.ToolDir)
	str(&f.Make, u.Make)
	str(&f.Report, u.Report)
	str(&f.CacheDir, u.CacheDir)
	if u.Include != nil {
		f.SearchPaths = *u.Include
	}
	if u.Variables != nil {
		if f.Variables == nil {
			f.Variables = make(map[string]string)
		}
		for k, v := range u.Variables {
			f.Variables[k] = v
		}
	}
	if u.MSVS != nil {
		if u.MSVS.Year != nil {
			f.MSVS.Year = *u.MSVS.Year
		}
		str(&f.MSVS.Version, u.MSVS.Version)
		str(&f.MSVS.NMake, u.MSVS.NMake)
	}
	if u.SourceInsight != nil {
		str(&f.SITemplate, u.SourceInsight.Template)
	}

	if u.Style != nil && fromConfig("style") {
		f.Style = *u.Style
	}
	if u.Silent != nil && fromConfig("silent") {
		f.Silent = *u.Silent
	}
	// the configured gear only replaces a gear requested without a value
	if u.Threads != nil && f.Gear == ImplicitGear {
		f.Gear = *u.Threads
	}
}
