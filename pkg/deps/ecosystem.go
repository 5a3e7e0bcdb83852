package deps

import (
	"path"
	"regexp"
	"slices"
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// Ecosystem tags a package-management system. The set is closed: every value
// has a parser in [languages].
//
// [languages]: github.com/matzehuels/stackbom/pkg/deps/languages
type Ecosystem string

const (
	Cargo    Ecosystem = "cargo"
	Composer Ecosystem = "composer"
	Gem      Ecosystem = "gem"
	Golang   Ecosystem = "golang"
	Maven    Ecosystem = "maven"
	NPM      Ecosystem = "npm"
	PyPI     Ecosystem = "pypi"
)

var ecosystems = []Ecosystem{Cargo, Composer, Gem, Golang, Maven, NPM, PyPI}

// Ecosystems returns every supported ecosystem in alphabetical order.
func Ecosystems() []Ecosystem {
	return slices.Clone(ecosystems)
}

// Valid reports whether e is a supported ecosystem.
func (e Ecosystem) Valid() bool {
	return slices.Contains(ecosystems, e)
}

// PurlType returns the package-URL type for e.
func (e Ecosystem) PurlType() string {
	switch e {
	case Cargo:
		return packageurl.TypeCargo
	case Composer:
		return packageurl.TypeComposer
	case Gem:
		return packageurl.TypeGem
	case Golang:
		return packageurl.TypeGolang
	case Maven:
		return packageurl.TypeMaven
	case NPM:
		return packageurl.TypeNPM
	case PyPI:
		return packageurl.TypePyPi
	}
	return string(e)
}

var pep503 = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical spelling of a package name.
// PyPI names follow PEP 503; other ecosystems are case sensitive and only
// trimmed.
func NormalizeName(e Ecosystem, name string) string {
	name = strings.TrimSpace(name)
	if e == PyPI {
		return pep503.ReplaceAllString(strings.ToLower(name), "-")
	}
	return name
}

// SplitName splits a fully qualified package name into namespace and name
// using the ecosystem's convention:
//
//	npm       @scope/name         -> @scope, name
//	composer  vendor/package      -> vendor, package
//	maven     group:artifact      -> group, artifact
//	golang    host/path/module    -> host/path, module
func SplitName(e Ecosystem, full string) (namespace, name string) {
	full = strings.TrimSpace(full)
	switch e {
	case NPM:
		if strings.HasPrefix(full, "@") {
			if i := strings.Index(full, "/"); i > 0 {
				return full[:i], full[i+1:]
			}
		}
	case Composer:
		if i := strings.Index(full, "/"); i > 0 {
			return full[:i], full[i+1:]
		}
	case Maven:
		if i := strings.Index(full, ":"); i > 0 {
			return full[:i], full[i+1:]
		}
		if i := strings.LastIndex(full, "/"); i > 0 {
			return full[:i], full[i+1:]
		}
	case Golang:
		if strings.Contains(full, "/") {
			return path.Dir(full), path.Base(full)
		}
	}
	return "", full
}

// Key joins namespace and name into the lookup key parsers use for edges.
func Key(e Ecosystem, namespace, name string) string {
	name = NormalizeName(e, name)
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// KeyOf returns the lookup key for a fully qualified package name.
func KeyOf(e Ecosystem, full string) string {
	ns, name := SplitName(e, full)
	return Key(e, ns, name)
}

// ID returns the component identity, a package URL of the form
// pkg:<type>/[<namespace>/]<name>@<version>. An empty version is reported as
// [UnknownVersion].
func (c Component) ID() string {
	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = UnknownVersion
	}
	return packageurl.NewPackageURL(
		c.Ecosystem.PurlType(),
		c.Namespace,
		NormalizeName(c.Ecosystem, c.Name),
		version,
		nil,
		"",
	).ToString()
}

// RootComponent derives the application component standing for the project.
func RootComponent(e Ecosystem, meta ProjectMetadata) Component {
	ns, name := SplitName(e, meta.Name)
	return Component{
		Kind:        KindApplication,
		Ecosystem:   e,
		Namespace:   ns,
		Name:        name,
		Version:     meta.Version,
		Description: meta.Description,
		Scope:       ScopeRequired,
	}
}
