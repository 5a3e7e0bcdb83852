package deps

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// UnknownVersion is reported when no lockfile resolved an exact version.
const UnknownVersion = "0.0.0"

// Options configures a single parse.
type Options struct {
	ExcludeDev bool        // Drop development-only packages
	Logger     *log.Logger // Warnings for unreadable files (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Scope classifies how a component is used by the project.
type Scope string

const (
	ScopeRequired Scope = "required"
	ScopeOptional Scope = "optional"
	ScopeExcluded Scope = "excluded"
)

// ScopeFor maps a development-only flag to a [Scope].
func ScopeFor(dev bool) Scope {
	if dev {
		return ScopeOptional
	}
	return ScopeRequired
}

// Kind is the component type recorded in the document.
type Kind string

const (
	KindLibrary     Kind = "library"
	KindApplication Kind = "application"
)

// Hash is a content digest for a component. Value is hex encoded.
type Hash struct {
	Alg   string
	Value string
}

// Reference types understood by the assembler.
const (
	RefWebsite      = "website"
	RefVCS          = "vcs"
	RefDistribution = "distribution"
)

// ExternalRef links a component to a URL.
type ExternalRef struct {
	Type string
	URL  string
}

// Component is one resolved package.
type Component struct {
	Kind         Kind
	Ecosystem    Ecosystem
	Namespace    string
	Name         string
	Version      string
	Description  string
	Scope        Scope
	Licenses     []string
	Hashes       []Hash
	ExternalRefs []ExternalRef

	// Extras and Markers are captured from requirement specifiers. They never
	// take part in the identity.
	Extras  []string
	Markers string

	// Dependencies lists the keys (see [Key]) of packages this one depends on.
	Dependencies []string
}

// Key returns the within-ecosystem lookup key: "namespace/name" or "name".
func (c Component) Key() string {
	return Key(c.Ecosystem, c.Namespace, c.Name)
}

// Dependency is a directed edge set: Ref depends on every entry of DependsOn.
type Dependency struct {
	Ref       string
	DependsOn []string
}

// ProjectMetadata describes the project being inventoried.
type ProjectMetadata struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	Repository  string
	License     string
	Authors     []string
	Keywords    []string
}

// Placeholder returns the metadata used when no manifest could be read.
func Placeholder(root string) ProjectMetadata {
	name := "unknown"
	if abs, err := filepath.Abs(root); err == nil {
		if base := filepath.Base(abs); base != "" && base != "." && base != string(filepath.Separator) {
			name = base
		}
	}
	return ProjectMetadata{Name: name, Version: UnknownVersion}
}

// Complete fills an empty name or version from [Placeholder].
func (m ProjectMetadata) Complete(root string) ProjectMetadata {
	p := Placeholder(root)
	if strings.TrimSpace(m.Name) == "" {
		m.Name = p.Name
	}
	if strings.TrimSpace(m.Version) == "" {
		m.Version = p.Version
	}
	return m
}

// ParseResult is everything one ecosystem parser extracted from a project.
type ParseResult struct {
	Ecosystem    Ecosystem
	Metadata     ProjectMetadata
	RootRef      string       // Identity of the synthetic project node
	Components   []Component  // Deduplicated by identity
	Dependencies []Dependency // Root edge first, then one entry per component
	Lockfile     string       // Base name of the lockfile parsed, empty if none
}
