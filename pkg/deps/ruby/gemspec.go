package ruby

import (
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/stackbom/pkg/deps"
)

var (
	specString = func(attr string) *regexp.Regexp {
		return regexp.MustCompile(`\.` + attr + `\s*=\s*["']([^"']+)["']`)
	}
	specList = func(attr string) *regexp.Regexp {
		return regexp.MustCompile(`\.` + attr + `\s*=\s*\[([^\]]*)\]`)
	}

	nameRE        = specString("name")
	versionRE     = specString("version")
	summaryRE     = specString("summary")
	descriptionRE = specString("description")
	homepageRE    = specString("homepage")
	licenseRE     = specString("license")
	licensesRE    = specList("licenses")
	authorsRE     = specList("authors")
	sourceURIRE   = regexp.MustCompile(`["']source_code_uri["']\s*\]?\s*(?:=>|=)\s*["']([^"']+)["']`)
	quotedRE      = regexp.MustCompile(`["']([^"']+)["']`)
)

func first(re *regexp.Regexp, src string) string {
	if m := re.FindStringSubmatch(src); len(m) > 1 {
		return m[1]
	}
	return ""
}

func list(re *regexp.Regexp, src string) []string {
	m := re.FindStringSubmatch(src)
	if len(m) < 2 {
		return nil
	}
	var out []string
	for _, q := range quotedRE.FindAllStringSubmatch(m[1], -1) {
		out = append(out, q[1])
	}
	return out
}

// readGemspec extracts literal attribute assignments. Computed values such
// as "spec.version = Foo::VERSION" are left empty.
func readGemspec(path string) (deps.ProjectMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return deps.ProjectMetadata{}, err
	}
	src := string(data)

	meta := deps.ProjectMetadata{
		Name:        first(nameRE, src),
		Version:     first(versionRE, src),
		Description: first(summaryRE, src),
		Homepage:    first(homepageRE, src),
		Repository:  first(sourceURIRE, src),
		License:     first(licenseRE, src),
		Authors:     list(authorsRE, src),
	}
	if meta.Description == "" {
		meta.Description = first(descriptionRE, src)
	}
	if meta.License == "" {
		meta.License = strings.Join(list(licensesRE, src), " OR ")
	}
	return meta, nil
}
