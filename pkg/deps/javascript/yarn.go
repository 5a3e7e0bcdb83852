package javascript

import (
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type yarnEntry struct {
	name      string
	version   string
	integrity string
	deps      []string
}

// specName extracts the package name from a yarn descriptor such as
// "@babel/core@^7.0.0" or "lodash@npm:^4.17.21".
func specName(spec string) string {
	spec = strings.Trim(strings.TrimSpace(spec), `"'`)
	start := 0
	if strings.HasPrefix(spec, "@") {
		start = 1
	}
	if i := strings.IndexByte(spec[start:], '@'); i >= 0 {
		return spec[:start+i]
	}
	return spec
}

func localSpec(spec string) bool {
	for _, p := range []string{"@workspace:", "@link:", "@portal:", "@file:", "@patch:"} {
		if strings.Contains(spec, p) {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// field splits "key value" (classic) or "key: value" (berry).
func field(line string) (key, value string) {
	line = strings.TrimSpace(line)
	if k, v, ok := strings.Cut(line, ": "); ok {
		return unquote(k), unquote(v)
	}
	if strings.HasSuffix(line, ":") {
		return unquote(strings.TrimSuffix(line, ":")), ""
	}
	if strings.HasPrefix(line, `"`) {
		if end := strings.Index(line[1:], `"`); end >= 0 {
			return line[1 : end+1], unquote(line[end+2:])
		}
	}
	k, v, _ := strings.Cut(line, " ")
	return unquote(k), unquote(v)
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// parseYarnEntries reads both the classic v1 format and the berry YAML
// dialect with a single line scanner.
func parseYarnEntries(lines []string) []yarnEntry {
	var entries []yarnEntry
	var cur *yarnEntry
	inDeps := false

	flush := func() {
		if cur != nil && cur.name != "" && cur.version != "" {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := indentOf(line)
		switch {
		case indent == 0:
			flush()
			inDeps = false
			header := strings.TrimSuffix(trimmed, ":")
			specs := strings.Split(header, ",")
			first := unquote(specs[0])
			if first == "__metadata" || localSpec(first) {
				continue
			}
			cur = &yarnEntry{name: specName(first)}
		case cur == nil:
			continue
		case indent <= 2:
			key, value := field(trimmed)
			inDeps = false
			switch key {
			case "version":
				cur.version = value
			case "integrity":
				cur.integrity = value
			case "dependencies", "optionalDependencies", "peerDependencies":
				inDeps = value == ""
			}
		case inDeps:
			if name, _ := field(trimmed); name != "" {
				cur.deps = append(cur.deps, name)
			}
		}
	}
	flush()
	return entries
}

// parseYarnLock reads yarn.lock. The format has no dev flag, so packages not
// reachable from the production dependencies of package.json are dev.
func parseYarnLock(path string, b *deps.ResultBuilder, manifest packageJSON) error {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return err
	}
	entries := parseYarnEntries(lines)

	edges := make(map[string][]string, len(entries))
	for _, e := range entries {
		edges[e.name] = append(edges[e.name], e.deps...)
	}
	prodRoots := manifest.prodNames()
	prod := deps.Reachable(deps.NPM, prodRoots, edges)
	known := len(prodRoots) > 0 || len(manifest.DevDependencies) > 0

	for _, e := range entries {
		dev := known && !prod[deps.KeyOf(deps.NPM, e.name)]
		b.Add(component(e.name, e.version, e.integrity, dev, e.deps))
	}
	b.Direct(manifest.allNames()...)
	return nil
}
