package serializer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// definitionFile is the on-disk shape of a definitions file. A file holds
// either a single definition or a "serializers" list.
type definitionFile struct {
	Definition  `yaml:",inline"`
	Serializers []Definition `yaml:"serializers,omitempty"`
}

// Parse parses serializer definitions from YAML bytes.
func Parse(data []byte) ([]Definition, error) {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	defs := file.Serializers
	if file.Name != "" {
		defs = append([]Definition{file.Definition}, defs...)
	}

	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		nd, err := d.Normalize()
		if err != nil {
			return nil, err
		}
		out = append(out, nd)
	}
	return out, nil
}

// ParseFile parses serializer definitions from a YAML file.
func ParseFile(p string) ([]Definition, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", p, err)
	}
	return Parse(data)
}

// ParseDir parses every *.yaml / *.yml file in dir, in lexical order.
func ParseDir(dir string) ([]Definition, error) {
	return ParseFS(os.DirFS(dir), ".")
}

// ParseFS parses every *.yaml / *.yml file under dir in fsys, in lexical
// order, so embedded and on-disk definitions load identically.
func ParseFS(fsys fs.FS, dir string) ([]Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var defs []Definition
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", name, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}
