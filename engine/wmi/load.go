package wmi

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the YAML layout accepted by Load:
//
//	manufacturers:
//	  1M8: Motor Coach Industries
//	  5YJ: Tesla
type overrideFile struct {
	Manufacturers map[string]string `yaml:"manufacturers"`
}

// Load reads manufacturer overrides from r and returns base extended with them.
func Load(base *Table, r io.Reader) (*Table, error) {
	var f overrideFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode wmi overrides: %w", err)
	}
	return base.With(f.Manufacturers)
}

// LoadFile extends the default table with the overrides in path. An empty path
// returns the default table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wmi overrides: %w", err)
	}
	defer fh.Close()
	return Load(Default(), fh)
}
