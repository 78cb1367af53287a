package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mentorbotdev/mentorbot/internal/core"
)

//go:embed default.yaml
var defaultYAML []byte

// Lists holds the six ordered lists a deterministic lesson is composed
// from. Missing lists stay empty; the picker tolerates that.
type Lists struct {
	Intros      []string `yaml:"intros"`
	Titles      []string `yaml:"titles"`
	Quotes      []string `yaml:"quotes"`
	Reflections []string `yaml:"reflections"`
	CheckIns    []string `yaml:"checkins"`
	Closings    []string `yaml:"closings"`
}

// Table is the read-only per-role content source, loaded once at startup.
type Table struct {
	roles map[string]Lists
}

// Load reads the table from path, or the embedded default when path is
// empty.
func Load(path string) (*Table, error) {
	data := defaultYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content table: %w", err)
		}
	}

	var roles map[string]Lists
	if err := yaml.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("parse content table: %w", err)
	}
	return &Table{roles: roles}, nil
}

// ForRole returns the lists for a role; unknown roles get empty lists.
func (t *Table) ForRole(role core.Role) Lists {
	return t.roles[string(role)]
}
