package javascript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type packageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Description          string            `json:"description"`
	Homepage             string            `json:"homepage"`
	Keywords             []string          `json:"keywords"`
	Repository           json.RawMessage   `json:"repository"`
	License              json.RawMessage   `json:"license"`
	Author               json.RawMessage   `json:"author"`
	Contributors         []json.RawMessage `json:"contributors"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// readPackageJSON returns an empty manifest when the file is absent.
func readPackageJSON(path string) (packageJSON, error) {
	var pkg packageJSON
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pkg, nil
	}
	err := decode.ReadFile(path, decode.JSON, &pkg)
	return pkg, err
}

func (p packageJSON) metadata() deps.ProjectMetadata {
	meta := deps.ProjectMetadata{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Homepage:    p.Homepage,
		Keywords:    p.Keywords,
		Repository:  stringOrField(p.Repository, "url"),
		License:     stringOrField(p.License, "type"),
	}
	if a := person(p.Author); a != "" {
		meta.Authors = append(meta.Authors, a)
	}
	for _, c := range p.Contributors {
		if a := person(c); a != "" {
			meta.Authors = append(meta.Authors, a)
		}
	}
	return meta
}

// prodNames returns dependency names that ship with the package.
func (p packageJSON) prodNames() []string {
	return mergedKeys(p.Dependencies, p.OptionalDependencies, p.PeerDependencies)
}

func (p packageJSON) allNames() []string {
	return mergedKeys(p.Dependencies, p.OptionalDependencies, p.PeerDependencies, p.DevDependencies)
}

// stringOrField decodes a field that is either a string or an object.
func stringOrField(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if v, ok := obj[field].(string); ok {
			return v
		}
	}
	return ""
}

// person decodes "Name <email> (url)" strings and {name, email} objects.
func person(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Email != "" && obj.Name != "" {
		return fmt.Sprintf("%s <%s>", obj.Name, obj.Email)
	}
	return obj.Name
}
