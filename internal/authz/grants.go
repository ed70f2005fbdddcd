package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// grantsFile is the YAML shape of a grants file:
//
//	grants:
//	  alice:
//	    - files:write
//	    - quota:ok
//	  bob:
//	    - files:read
type grantsFile struct {
	Grants map[string][]string `yaml:"grants"`
}

// LoadGrants reads a YAML grants file into a Static resolver.
// A file with no grants section yields a resolver that denies
// everything, same as Deny.
func LoadGrants(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grants file: %w", err)
	}
	return ParseGrants(data)
}

// ParseGrants parses YAML grant data into a Static resolver.
func ParseGrants(data []byte) (*Static, error) {
	var gf grantsFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse grants file: %w", err)
	}
	return NewStatic(gf.Grants), nil
}
