package crate

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Manifest is the subset of Cargo.toml the extractor needs.
type Manifest struct {
	Name              string
	AvailableFeatures []string // Every key of [features], sorted
	DefaultFeatures   []string // String entries of features.default, sorted
}

type cargoToml struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Features map[string]any `toml:"features"`
}

// ReadManifest reads a Cargo manifest. It never fails: an unreadable file yields
// ok=false, and undecodable TOML yields empty feature lists with the name taken
// from the first `name = "..."` line.
func ReadManifest(fs afero.Fs, path string) (Manifest, bool) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return Manifest{AvailableFeatures: []string{}, DefaultFeatures: []string{}}, false
	}
	return ParseManifest(content), true
}

// ParseManifest decodes manifest text. Feature lists are sorted; duplicate
// entries in features.default are kept.
func ParseManifest(content []byte) Manifest {
	m := Manifest{
		AvailableFeatures: []string{},
		DefaultFeatures:   []string{},
	}

	var doc cargoToml
	if err := toml.Unmarshal(content, &doc); err != nil {
		m.Name = scanName(string(content))
		return m
	}

	m.Name = doc.Package.Name
	for name, value := range doc.Features {
		m.AvailableFeatures = append(m.AvailableFeatures, name)
		if name != "default" {
			continue
		}
		deps, _ := value.([]any)
		for _, dep := range deps {
			if s, ok := dep.(string); ok {
				m.DefaultFeatures = append(m.DefaultFeatures, s)
			}
		}
	}

	sort.Strings(m.AvailableFeatures)
	sort.Strings(m.DefaultFeatures)
	return m
}

// scanName finds the first line starting with `name` and returns its quoted value.
func scanName(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "name") {
			continue
		}
		_, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}

// crateName picks the manifest's name when a manifest was read, the directory
// name when there is none, and "unknown" when neither yields a name.
func crateName(m Manifest, found bool, root string) string {
	if found {
		if m.Name != "" {
			return m.Name
		}
		return "unknown"
	}
	if base := filepath.Base(filepath.Clean(root)); base != "" && base != "." && base != string(filepath.Separator) {
		return base
	}
	return "unknown"
}
