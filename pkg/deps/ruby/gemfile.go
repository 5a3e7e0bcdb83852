package ruby

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

var (
	gemPattern   = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]`)
	groupPattern = regexp.MustCompile(`^\s*group\s+(.+?)\s+do\b`)
	inlineGroup  = regexp.MustCompile(`\bgroups?:\s*(\[[^\]]*\]|:\w+|['"]\w+['"])`)
	symbolRE     = regexp.MustCompile(`:?['"]?(\w+)['"]?`)
	blockOpen    = regexp.MustCompile(`\bdo\s*(\|[^|]*\|)?\s*$`)
	devGroups    = []string{"development", "test"}
)

type declaredGem struct {
	name string
	dev  bool
}

type gemfile struct {
	gems []declaredGem
}

// devNames returns gems declared only in development groups.
func (g gemfile) devNames() map[string]bool {
	dev := make(map[string]bool)
	for _, d := range g.gems {
		if d.dev {
			dev[d.name] = true
		}
	}
	for _, d := range g.gems {
		if !d.dev {
			delete(dev, d.name)
		}
	}
	return dev
}

func groupsDev(spec string) bool {
	groups := symbolRE.FindAllStringSubmatch(spec, -1)
	if len(groups) == 0 {
		return false
	}
	for _, m := range groups {
		if !slices.Contains(devGroups, m[1]) {
			return false
		}
	}
	return true
}

// readGemfile tracks group blocks by counting do/end pairs. Only literal gem
// declarations are recognized.
func readGemfile(path string) (gemfile, error) {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return gemfile{}, err
	}

	var gf gemfile
	seen := make(map[string]bool)
	// stack holds one entry per open block: whether it is a dev group.
	var stack []bool
	inDev := func() bool { return slices.Contains(stack, true) }

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := groupPattern.FindStringSubmatch(trimmed); m != nil {
			stack = append(stack, groupsDev(m[1]))
			continue
		}
		if trimmed == "end" {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		if m := gemPattern.FindStringSubmatch(trimmed); m != nil {
			dev := inDev()
			if g := inlineGroup.FindStringSubmatch(trimmed); g != nil {
				dev = dev || groupsDev(g[1])
			}
			key := m[1]
			if !seen[key] || !dev {
				seen[key] = true
				gf.gems = append(gf.gems, declaredGem{name: m[1], dev: dev})
			}
		}
		if blockOpen.MatchString(trimmed) {
			stack = append(stack, false)
		}
	}
	return gf, nil
}

type lockSpec struct {
	name    string
	version string
	source  string
	deps    []string
}

// stripPlatform removes a platform suffix ("1.15.5-x86_64-linux").
// RubyGems prerelease segments use dots, never dashes.
func stripPlatform(version string) string {
	if i := strings.IndexByte(version, '-'); i > 0 {
		return version[:i]
	}
	return version
}

// parseSpecLine reads "name (version)" or "name (constraint)" lines.
func parseSpecLine(line string) (name, version string) {
	line = strings.TrimSpace(line)
	name, rest, ok := strings.Cut(line, " (")
	if !ok {
		return strings.TrimSuffix(line, "!"), ""
	}
	return name, strings.TrimSuffix(rest, ")")
}

// parseLockSections reads the spec sections and DEPENDENCIES of a lockfile.
// Spec entries sit at four spaces of indentation, their dependencies at six.
func parseLockSections(lines []string) (specs []lockSpec, direct []string) {
	section := ""
	remote := ""
	var cur *lockSpec
	flush := func() {
		if cur != nil {
			specs = append(specs, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		trimmed := strings.TrimSpace(line)

		if indent == 0 {
			flush()
			section = trimmed
			remote = ""
			continue
		}

		switch section {
		case "GEM", "GIT", "PATH":
			switch {
			case indent == 2 && strings.HasPrefix(trimmed, "remote:"):
				remote = strings.TrimSpace(strings.TrimPrefix(trimmed, "remote:"))
			case indent == 4:
				flush()
				if section == "PATH" {
					continue
				}
				name, version := parseSpecLine(trimmed)
				cur = &lockSpec{name: name, version: stripPlatform(version)}
				if section == "GIT" {
					cur.source = remote
				}
			case indent == 6 && cur != nil:
				name, _ := parseSpecLine(trimmed)
				cur.deps = append(cur.deps, name)
			}
		case "DEPENDENCIES":
			if indent == 2 {
				name, _ := parseSpecLine(trimmed)
				direct = append(direct, name)
			}
		}
	}
	flush()
	return specs, direct
}

func parseLockfile(path string, b *deps.ResultBuilder, gf gemfile) error {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return err
	}
	specs, direct := parseLockSections(lines)

	edges := make(map[string][]string, len(specs))
	for _, s := range specs {
		edges[s.name] = append(edges[s.name], s.deps...)
	}
	devOnly := gf.devNames()
	var prodRoots []string
	for _, d := range direct {
		if !devOnly[d] {
			prodRoots = append(prodRoots, d)
		}
	}
	prod := deps.Reachable(deps.Gem, prodRoots, edges)
	classify := len(devOnly) > 0

	for _, s := range specs {
		c := deps.Component{
			Name:         s.name,
			Version:      s.version,
			Scope:        deps.ScopeFor(classify && !prod[s.name]),
			Dependencies: s.deps,
		}
		if s.source != "" {
			c.ExternalRefs = []deps.ExternalRef{{Type: deps.RefVCS, URL: s.source}}
		}
		b.Add(c)
	}
	b.Direct(direct...)
	return nil
}
