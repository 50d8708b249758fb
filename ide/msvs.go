package ide

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/zyedidia/stat/project"
)

const projectGUID = "{86FC28D1-F4DE-4209-B544-10B5415D0C20}"

const debugCondition = "'$(Configuration)|$(Platform)'=='Debug|Win32'"

//go:embed vs_solution.tsln
var solutionTemplate string

var solution = template.Must(template.New("solution").Parse(solutionTemplate))

// msvs writes an NMake based Visual Studio project and its solution.
type msvs struct {
	p       *project.Project
	cfg     Config
	name    string
	sources *node
	headers *node
	root    *node
}

func newMSVS(p *project.Project, cfg Config) (Writer, error) {
	w := &msvs{
		p:       p,
		cfg:     cfg,
		name:    fmt.Sprintf("vs_%s.vcxproj", p.Name()),
		sources: element("ItemGroup"),
		headers: element("ItemGroup"),
	}
	w.root = w.compose()
	return w, nil
}

func (w *msvs) output(elem ...string) string {
	base := []string{"..", w.cfg.OutputDir, w.p.OutputName(), "msvs_" + w.p.Name()}
	return winPath(filepath.Join(append(base, elem...)...))
}

func winPath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

func (w *msvs) commandLine(target string) string {
	return fmt.Sprintf(`cd..&&"%s" /S /NOLOGO /ERRORREPORT:NONE /F %s PRIVATE_NAME="msvs_%s" %s`,
		w.cfg.MSVS.NMake, w.p.Makefile(), w.p.Name(), target)
}

func (w *msvs) compose() *node {
	definitions := strings.Join(append([]string{"WIN32", "_DEBUG"}, w.p.Definitions()...), ";")
	executable := w.output("bin", w.p.OutputName()+".exe")

	return element("Project",
		"DefaultTargets", "Build",
		"ToolsVersion", w.cfg.MSVS.Version,
		"xmlns", "http://schemas.microsoft.com/developer/msbuild/2003",
	).add(
		element("ItemGroup", "Label", "ProjectConfigurations").add(
			element("ProjectConfiguration", "Include", "Debug|Win32").props(
				"Configuration", "Debug",
				"Platform", "Win32",
			),
		),
		element("PropertyGroup", "Label", "Globals").props(
			"ProjectName", w.p.Name(),
			"ProjectGuid", projectGUID,
			"Keyword", "MakeFileProj",
			"RootNamespace", w.p.Name(),
		),
		element("Import", "Project", `$(VCTargetsPath)\Microsoft.Cpp.Default.props`),
		element("PropertyGroup", "Condition", debugCondition, "Label", "Configuration").props(
			"ConfigurationType", "Makefile",
		),
		element("Import", "Project", `$(VCTargetsPath)\Microsoft.Cpp.props`),
		element("ImportGroup", "Label", "ExtensionSettings"),
		element("ImportGroup", "Condition", debugCondition, "Label", "PropertySheets").add(
			element("Import",
				"Project", `$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props`,
				"Condition", `exists('$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props')`,
				"Label", "LocalAppDataPlatform",
			),
		),
		element("PropertyGroup", "Label", "UserMacros"),
		element("PropertyGroup").props("_ProjectFileVersion", w.cfg.MSVS.Version),
		element("PropertyGroup", "Condition", debugCondition).props(
			"OutDir", ".",
			"IntDir", ".",
			"NMakeBuildCommandLine", w.commandLine("build"),
			"NMakeReBuildCommandLine", w.commandLine("rebuild"),
			"NMakeCleanCommandLine", w.commandLine("clean"),
			"NMakeOutput", executable,
			"NMakePreprocessorDefinitions", definitions+";$(NMakePreprocessorDefinitions)",
			"NMakeIncludeSearchPath", w.output("inc")+";$(NMakeIncludeSearchPath)",
		),
		element("ItemDefinitionGroup"),
		w.sources,
		w.headers,
		element("Import", "Project", `$(VCTargetsPath)\Microsoft.Cpp.targets`),
		element("ImportGroup", "Label", "ExtensionTargets"),
	)
}

// The project lists files flat, so directories carry no information.
func (w *msvs) RootToken() Token                        { return nil }
func (w *msvs) DirToken(name string, parent Token) Token { return nil }

func (w *msvs) AddFile(path string, parent Token) {
	include := winPath(filepath.Join("..", path))
	switch filepath.Ext(path) {
	case ".c":
		w.sources.add(element("ClCompile", "Include", include))
	case ".h":
		w.headers.add(element("ClInclude", "Include", include))
	}
}

func solutionFormat(year int) string {
	if year >= 2012 {
		return "12.00"
	}
	return "11.00"
}

func (w *msvs) Write() error {
	proj := filepath.Join(w.cfg.Dir, w.name)
	if err := writeXML(proj, w.root); err != nil {
		return err
	}

	sln := filepath.Join(w.cfg.Dir, fmt.Sprintf("vs_%s.sln", w.p.Name()))
	f, err := os.Create(sln)
	if err != nil {
		return err
	}
	err = solution.Execute(f, struct {
		Format      string
		Year        int
		Version     string
		Name        string
		ProjectFile string
		GUID        string
	}{
		Format:      solutionFormat(w.cfg.MSVS.Year),
		Year:        w.cfg.MSVS.Year,
		Version:     w.cfg.MSVS.Version,
		Name:        w.p.Name(),
		ProjectFile: w.name,
		GUID:        projectGUID,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(sln)
	fmt.Fprintf(w.cfg.Out, "Visual-Studio solution \"%s\" has been created successfully.\n", abs)
	return nil
}
