package java

import (
	"encoding/xml"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	URL          string          `xml:"url"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Licenses     []pomLicense    `xml:"licenses>license"`
	Developers   []pomDeveloper  `xml:"developers>developer"`
	SCM          pomSCM          `xml:"scm"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

type pomLicense struct {
	Name string `xml:"name"`
}

type pomDeveloper struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

type pomSCM struct {
	URL string `xml:"url"`
}

// pomProperties collects arbitrary <properties> children.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var entries struct {
		Items []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	}
	if err := d.DecodeElement(&entries, &start); err != nil {
		return err
	}
	*p = make(pomProperties, len(entries.Items))
	for _, item := range entries.Items {
		(*p)[item.XMLName.Local] = strings.TrimSpace(item.Value)
	}
	return nil
}

// readPOM returns nil and the os error when the file is missing. XML is
// decoded with encoding/xml after byte-order-mark removal.
func readPOM(path string) (*pomProject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pom pomProject
	if err := xml.Unmarshal(decode.StripBOM(data), &pom); err != nil {
		return nil, &decode.Error{Format: decode.FormatXML, Path: path, Err: err}
	}
	return &pom, nil
}

func (p *pomProject) groupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

func (p *pomProject) version() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

var propertyRE = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolve substitutes ${...} references. It reports false when any
// reference stays unresolved.
func (p *pomProject) resolve(s string) (string, bool) {
	ok := true
	out := propertyRE.ReplaceAllStringFunc(s, func(ref string) string {
		key := ref[2 : len(ref)-1]
		switch key {
		case "project.version", "pom.version", "version":
			if v := p.version(); v != "" && !strings.Contains(v, "${") {
				return v
			}
		case "project.groupId", "pom.groupId":
			if g := p.groupID(); g != "" {
				return g
			}
		case "project.parent.version":
			if p.Parent != nil && p.Parent.Version != "" {
				return p.Parent.Version
			}
		}
		if v, found := p.Properties[key]; found && !strings.Contains(v, "${") {
			return v
		}
		ok = false
		return ref
	})
	return out, ok
}

func isRange(v string) bool {
	return strings.ContainsAny(v, "[](),")
}

func (p *pomProject) metadata() deps.ProjectMetadata {
	if p == nil {
		return deps.ProjectMetadata{}
	}
	meta := deps.ProjectMetadata{
		Description: strings.TrimSpace(p.Description),
		Homepage:    p.URL,
		Repository:  p.SCM.URL,
	}
	if g := p.groupID(); g != "" {
		meta.Name = g + ":" + p.ArtifactID
	} else {
		meta.Name = p.ArtifactID
	}
	if v, ok := p.resolve(p.version()); ok {
		meta.Version = v
	}
	var lic []string
	for _, l := range p.Licenses {
		if l.Name != "" {
			lic = append(lic, l.Name)
		}
	}
	meta.License = strings.Join(lic, " OR ")
	for _, d := range p.Developers {
		if d.Name != "" {
			meta.Authors = append(meta.Authors, d.Name)
		}
	}
	return meta
}

func (p *pomProject) managedVersion(group, artifact string) string {
	for _, m := range p.Managed {
		if m.GroupID == group && m.ArtifactID == artifact {
			return m.Version
		}
	}
	return ""
}

// components lists the declared dependencies. Test scope is dev; provided
// and system scoped artifacts are not shipped and are skipped, as are
// coordinates that reference unresolved properties.
func (p *pomProject) components() []deps.Component {
	var out []deps.Component
	for _, d := range p.Dependencies {
		if d.Scope == "provided" || d.Scope == "system" || d.Scope == "import" {
			continue
		}
		group, gok := p.resolve(d.GroupID)
		artifact, aok := p.resolve(d.ArtifactID)
		if !gok || !aok || group == "" || artifact == "" {
			continue
		}
		raw := d.Version
		if raw == "" {
			raw = p.managedVersion(d.GroupID, d.ArtifactID)
		}
		version, ok := p.resolve(raw)
		if !ok || version == "" || isRange(version) {
			version = deps.UnknownVersion
		}
		out = append(out, deps.Component{
			Namespace: group,
			Name:      artifact,
			Version:   version,
			Scope:     deps.ScopeFor(d.Scope == "test"),
		})
	}
	return out
}
