package ranges

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stride-labs/stridecheck/internal/errors"
)

// AliasTable maps legacy or alternate variable names to canonical
// names of the form <joint>_<motion>_<quantity>_<side>_<unit>.
//
// The table is data-driven by design: new aliases are added to the
// document, not to code. Resolution is a single hop; alias targets are
// expected to be canonical names, not further aliases.
type AliasTable map[string]string

// rawAliases mirrors the serialized alias document.
type rawAliases struct {
	Aliases map[string]string `yaml:"aliases"`
}

// ParseAliases decodes an alias table from a serialized document.
// An absent or empty aliases key yields an empty table, not an error:
// datasets with fully canonical naming need no aliases.
func ParseAliases(source string, data []byte) (AliasTable, error) {
	var raw rawAliases
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewConfigCause(source, err)
	}
	if raw.Aliases == nil {
		return AliasTable{}, nil
	}
	return AliasTable(raw.Aliases), nil
}

// LoadAliasFile reads and parses an alias table from a YAML file.
func LoadAliasFile(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigCause(path, err)
	}
	return ParseAliases(path, data)
}

// Resolve maps name to its canonical form, returning the input
// unchanged when no mapping exists. Callers must separately verify the
// canonical name exists in the specification before treating it as
// covered.
func (t AliasTable) Resolve(name string) string {
	if canonical, ok := t[name]; ok {
		return canonical
	}
	return name
}
