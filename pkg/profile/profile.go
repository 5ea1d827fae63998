// Package profile loads YAML seed profiles and applies them to registered
// configuration groups through their textual Set path, exactly as if each
// value had arrived as a "set" command.
package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/permaconf/permaconf-go/pkg/conf"
)

// Profile is a parsed seed profile.
//
//	groups:
//	  network:
//	    hostname: unit7
//	    port: 8443
type Profile struct {
	Groups map[string]map[string]any `yaml:"groups"`
}

// Parse decodes a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Apply sets every profile value on its registered group and fires each
// touched group's Updated callback once. Unknown groups and field-level set
// failures are errors; nothing is rolled back on failure.
func (p *Profile) Apply(registry *conf.Registry) error {
	// YAML maps are unordered; apply deterministically.
	groupNames := make([]string, 0, len(p.Groups))
	for name := range p.Groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, groupName := range groupNames {
		element, ok := registry.Find(groupName)
		if !ok {
			return fmt.Errorf("profile references unknown group %q", groupName)
		}

		fields := p.Groups[groupName]
		fieldNames := make([]string, 0, len(fields))
		for name := range fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)

		for _, fieldName := range fieldNames {
			value := fmt.Sprint(fields[fieldName])
			if err := element.Handler.Set(fieldName, value); err != nil {
				return fmt.Errorf("profile %s.%s: %w", groupName, fieldName, err)
			}
		}
		element.Updated()
	}
	return nil
}
