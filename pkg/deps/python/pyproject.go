package python

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

// project is what the manifests say about the project itself.
type project struct {
	meta        deps.ProjectMetadata
	declared    []requirement
	declaredDev []requirement
}

// directNames returns the declared names, production first.
func (p project) directNames() []string {
	names := make([]string, 0, len(p.declared)+len(p.declaredDev))
	for _, r := range p.declared {
		names = append(names, r.Name)
	}
	for _, r := range p.declaredDev {
		names = append(names, r.Name)
	}
	return names
}

func (p project) devNames() map[string]bool {
	m := make(map[string]bool, len(p.declaredDev))
	for _, r := range p.declaredDev {
		m[deps.NormalizeName(deps.PyPI, r.Name)] = true
	}
	for _, r := range p.declared {
		delete(m, deps.NormalizeName(deps.PyPI, r.Name))
	}
	return m
}

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Description          string              `toml:"description"`
		License              any                 `toml:"license"`
		Authors              []pyAuthor          `toml:"authors"`
		Keywords             []string            `toml:"keywords"`
		URLs                 map[string]string   `toml:"urls"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
	Tool             struct {
		Poetry struct {
			Name            string                 `toml:"name"`
			Version         string                 `toml:"version"`
			Description     string                 `toml:"description"`
			License         string                 `toml:"license"`
			Homepage        string                 `toml:"homepage"`
			Repository      string                 `toml:"repository"`
			Authors         []string               `toml:"authors"`
			Keywords        []string               `toml:"keywords"`
			Dependencies    map[string]any         `toml:"dependencies"`
			DevDependencies map[string]any         `toml:"dev-dependencies"`
			Group           map[string]poetryGroup `toml:"group"`
		} `toml:"poetry"`
		UV struct {
			DevDependencies []string `toml:"dev-dependencies"`
		} `toml:"uv"`
	} `toml:"tool"`
}

type pyAuthor struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type poetryGroup struct {
	Dependencies map[string]any `toml:"dependencies"`
}

// readProject tries pyproject.toml ([project], then [tool.poetry]), then
// setup.cfg, then falls back to a placeholder.
func readProject(root string, logger *log.Logger) project {
	var proj project

	var py pyprojectFile
	err := decode.ReadFile(filepath.Join(root, "pyproject.toml"), decode.TOML, &py)
	switch {
	case err == nil:
		proj = fromPyproject(py)
	case !os.IsNotExist(err):
		logger.Warn("manifest unreadable", "file", "pyproject.toml", "err", err)
	}

	if proj.meta.Name == "" {
		if meta, ok := readSetupCfg(filepath.Join(root, "setup.cfg")); ok {
			proj.meta = meta
		}
	}
	proj.meta = proj.meta.Complete(root)
	return proj
}

func fromPyproject(py pyprojectFile) project {
	var proj project

	pep := py.Project
	poetry := py.Tool.Poetry
	switch {
	case pep.Name != "":
		proj.meta = deps.ProjectMetadata{
			Name:        pep.Name,
			Version:     pep.Version,
			Description: pep.Description,
			License:     licenseString(pep.License),
			Keywords:    pep.Keywords,
			Homepage:    firstURL(pep.URLs, "homepage", "home-page", "documentation"),
			Repository:  firstURL(pep.URLs, "repository", "source", "source code", "code"),
		}
		for _, a := range pep.Authors {
			proj.meta.Authors = append(proj.meta.Authors, formatAuthor(a))
		}
		if proj.meta.Version == "" {
			proj.meta.Version = poetry.Version
		}
	case poetry.Name != "":
		proj.meta = deps.ProjectMetadata{
			Name:        poetry.Name,
			Version:     poetry.Version,
			Description: poetry.Description,
			License:     poetry.License,
			Homepage:    poetry.Homepage,
			Repository:  poetry.Repository,
			Authors:     poetry.Authors,
			Keywords:    poetry.Keywords,
		}
	}

	for _, spec := range pep.Dependencies {
		if r, ok := parseRequirement(spec); ok {
			proj.declared = append(proj.declared, r)
		}
	}
	for _, name := range sortedKeys(poetry.Dependencies) {
		if strings.EqualFold(name, "python") {
			continue
		}
		proj.declared = append(proj.declared, poetryRequirement(name, poetry.Dependencies[name]))
	}

	for _, group := range sortedKeys(pep.OptionalDependencies) {
		for _, spec := range pep.OptionalDependencies[group] {
			if r, ok := parseRequirement(spec); ok {
				proj.declaredDev = append(proj.declaredDev, r)
			}
		}
	}
	for _, group := range sortedKeys(py.DependencyGroups) {
		for _, item := range py.DependencyGroups[group] {
			// Entries may also be {include-group = "..."} tables.
			if spec, ok := item.(string); ok {
				if r, ok := parseRequirement(spec); ok {
					proj.declaredDev = append(proj.declaredDev, r)
				}
			}
		}
	}
	for _, spec := range py.Tool.UV.DevDependencies {
		if r, ok := parseRequirement(spec); ok {
			proj.declaredDev = append(proj.declaredDev, r)
		}
	}
	for _, name := range sortedKeys(poetry.DevDependencies) {
		proj.declaredDev = append(proj.declaredDev, poetryRequirement(name, poetry.DevDependencies[name]))
	}
	for _, group := range sortedKeys(poetry.Group) {
		gdeps := poetry.Group[group].Dependencies
		for _, name := range sortedKeys(gdeps) {
			r := poetryRequirement(name, gdeps[name])
			if group == "main" {
				proj.declared = append(proj.declared, r)
			} else {
				proj.declaredDev = append(proj.declaredDev, r)
			}
		}
	}
	return proj
}

// poetryRequirement converts a [tool.poetry.dependencies] entry, which is
// either a constraint string or a table with a "version" key.
func poetryRequirement(name string, v any) requirement {
	r := requirement{Name: name, Version: deps.UnknownVersion}
	var constraint string
	switch val := v.(type) {
	case string:
		constraint = val
	case map[string]any:
		constraint, _ = val["version"].(string)
		if extras, ok := val["extras"].([]any); ok {
			for _, e := range extras {
				if s, ok := e.(string); ok {
					r.Extras = append(r.Extras, s)
				}
			}
		}
		r.Markers, _ = val["markers"].(string)
	}
	if v, ok := exactPin(constraint); ok {
		r.Version = v
	} else if v := strings.TrimSpace(constraint); isPlainVersion(v) {
		r.Version = v
	}
	return r
}

func licenseString(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]any:
		if s, ok := l["text"].(string); ok {
			return s
		}
	}
	return ""
}

func formatAuthor(a pyAuthor) string {
	switch {
	case a.Name != "" && a.Email != "":
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	case a.Name != "":
		return a.Name
	}
	return a.Email
}

func firstURL(urls map[string]string, keys ...string) string {
	for _, want := range keys {
		for k, v := range urls {
			if strings.EqualFold(k, want) {
				return v
			}
		}
	}
	return ""
}

// readSetupCfg reads the [metadata] section of a setup.cfg file.
func readSetupCfg(path string) (deps.ProjectMetadata, bool) {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return deps.ProjectMetadata{}, false
	}

	var meta deps.ProjectMetadata
	section := ""
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != "metadata" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
		value = strings.TrimSpace(value)
		switch key {
		case "name":
			meta.Name = value
		case "version":
			if !strings.HasPrefix(value, "attr:") && !strings.HasPrefix(value, "file:") {
				meta.Version = value
			}
		case "description":
			meta.Description = value
		case "url", "home_page":
			meta.Homepage = value
		case "license":
			meta.License = value
		case "author":
			meta.Authors = append(meta.Authors, value)
		case "keywords":
			for _, k := range strings.Split(value, ",") {
				if k = strings.TrimSpace(k); k != "" {
					meta.Keywords = append(meta.Keywords, k)
				}
			}
		}
	}
	return meta, meta.Name != ""
}
