package python

import (
	"regexp"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

// requirement is one PEP 508 specifier reduced to what the inventory needs.
type requirement struct {
	Name    string
	Version string
	Extras  []string
	Markers string
}

func (r requirement) component(dev bool) deps.Component {
	return deps.Component{
		Name:    r.Name,
		Version: r.Version,
		Scope:   deps.ScopeFor(dev),
		Extras:  r.Extras,
		Markers: r.Markers,
	}
}

var (
	requirementRE = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
	plainVersion  = regexp.MustCompile(`^v?\d+(\.\d+)*([A-Za-z0-9.+!-]*)$`)
	vcsPrefixes   = []string{"git+", "hg+", "svn+", "bzr+"}
)

// parseRequirement parses a single requirement line. Comments, options,
// editable installs and URL or VCS references report ok=false.
func parseRequirement(line string) (requirement, bool) {
	line = stripComment(line)
	if line == "" || line[0] == '-' || line[0] == '.' || line[0] == '/' {
		return requirement{}, false
	}
	if strings.Contains(line, "://") {
		return requirement{}, false
	}
	for _, p := range vcsPrefixes {
		if strings.HasPrefix(line, p) {
			return requirement{}, false
		}
	}

	// Per-requirement options like --hash follow the specifier.
	if i := strings.Index(line, " --"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	var markers string
	if spec, m, ok := strings.Cut(line, ";"); ok {
		line = strings.TrimSpace(spec)
		markers = strings.TrimSpace(m)
	}

	m := requirementRE.FindStringSubmatch(line)
	if m == nil {
		return requirement{}, false
	}
	r := requirement{
		Name:    deps.NormalizeName(deps.PyPI, m[1]),
		Version: deps.UnknownVersion,
		Markers: markers,
	}
	if m[2] != "" {
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				r.Extras = append(r.Extras, e)
			}
		}
	}
	spec := strings.TrimSpace(m[3])
	if strings.HasPrefix(spec, "@") {
		// name @ https://... is a direct URL reference
		return requirement{}, false
	}
	if v, ok := exactPin(spec); ok {
		r.Version = v
	}
	return r, true
}

// exactPin returns the version of an "==" or "===" specifier that pins a
// single release. Wildcards and compound specifiers are not pins.
func exactPin(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	var v string
	switch {
	case strings.HasPrefix(spec, "==="):
		v = spec[3:]
	case strings.HasPrefix(spec, "=="):
		v = spec[2:]
	default:
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, ",*<>!~ ") {
		return "", false
	}
	return v, true
}

func isPlainVersion(s string) bool {
	return plainVersion.MatchString(s)
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	for _, sep := range []string{" #", "\t#"} {
		if i := strings.Index(line, sep); i >= 0 {
			line = line[:i]
		}
	}
	return strings.TrimSpace(line)
}

// joinContinuations merges lines ending in a backslash with the next line.
func joinContinuations(lines []string) []string {
	var out []string
	var cur strings.Builder
	for _, l := range lines {
		trimmed := strings.TrimRight(l, " \t")
		if strings.HasSuffix(trimmed, `\`) {
			cur.WriteString(strings.TrimSuffix(trimmed, `\`))
			cur.WriteByte(' ')
			continue
		}
		cur.WriteString(l)
		out = append(out, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// parseRequirementsFile reads a requirements file. Every parsed name is a
// direct dependency; the format carries no edges.
func parseRequirementsFile(path string, b *deps.ResultBuilder, dev bool) error {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return err
	}
	for _, line := range joinContinuations(lines) {
		r, ok := parseRequirement(line)
		if !ok {
			continue
		}
		b.Add(r.component(dev))
		b.Direct(r.Name)
	}
	return nil
}
