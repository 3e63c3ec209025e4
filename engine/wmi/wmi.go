// Package wmi resolves World Manufacturer Identifiers (the first three VIN
// characters) to region, country and manufacturer using a static table.
//
// Tables are read-only once built. With returns an extended copy; nothing
// mutates a table in place.
package wmi

import (
	"fmt"
	"maps"
	"strings"
)

// Info is what a WMI resolves to. Country or Manufacturer may be empty when the
// table only knows the broader level.
type Info struct {
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
}

// Region groups countries by the first WMI character.
type Region struct {
	Name      string
	Codes     string // first characters assigned to this region
	Countries []Country
}

// Country owns one or more ranges of the second WMI character.
type Country struct {
	Name   string
	Ranges []Range
}

// Range is an inclusive two-character span, e.g. {"SA", "SM"}. Both ends share
// the first character; the second character follows rangeOrder.
type Range struct {
	From, To string
}

// rangeOrder is the sort order of the second WMI character in ISO 3779 ranges.
const rangeOrder = "ABCDEFGHJKLMNPRSTUVWXYZ1234567890"

func (r Range) contains(code string) bool {
	if len(code) < 2 || len(r.From) != 2 || len(r.To) != 2 {
		return false
	}
	if code[0] != r.From[0] {
		return false
	}
	lo := strings.IndexByte(rangeOrder, r.From[1])
	hi := strings.IndexByte(rangeOrder, r.To[1])
	at := strings.IndexByte(rangeOrder, code[1])
	return at >= 0 && at >= lo && at <= hi
}

// Table is a region → country → manufacturer lookup.
type Table struct {
	regions       []Region
	manufacturers map[string]string // exact WMI
}

// NewTable builds a table. manufacturers is keyed by three-character WMI and
// may be nil.
func NewTable(regions []Region, manufacturers map[string]string) *Table {
	m := make(map[string]string, len(manufacturers))
	for code, name := range manufacturers {
		m[upper(code)] = name
	}
	return &Table{regions: regions, manufacturers: m}
}

// upper folds ASCII a-z only, matching VIN normalization.
func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Resolve looks up a three-character WMI. It returns false when the code's
// region is unknown.
func (t *Table) Resolve(code string) (Info, bool) {
	code = upper(code)
	if len(code) != 3 {
		return Info{}, false
	}
	for _, r := range t.regions {
		if strings.IndexByte(r.Codes, code[0]) < 0 {
			continue
		}
		info := Info{Region: r.Name, Manufacturer: t.manufacturers[code]}
		for _, c := range r.Countries {
			if c.matches(code) {
				info.Country = c.Name
				break
			}
		}
		return info, true
	}
	return Info{}, false
}

func (c Country) matches(code string) bool {
	for _, rg := range c.Ranges {
		if rg.contains(code) {
			return true
		}
	}
	return false
}

// Manufacturers returns a copy of the WMI → manufacturer entries.
func (t *Table) Manufacturers() map[string]string {
	return maps.Clone(t.manufacturers)
}

// With returns a new table carrying extra manufacturer entries. Existing codes
// are overridden. Codes must be three characters.
func (t *Table) With(extra map[string]string) (*Table, error) {
	m := make(map[string]string, len(t.manufacturers)+len(extra))
	maps.Copy(m, t.manufacturers)
	for code, name := range extra {
		if len(code) != 3 {
			return nil, fmt.Errorf("wmi %q: must be 3 characters", code)
		}
		m[upper(code)] = name
	}
	return &Table{regions: t.regions, manufacturers: m}, nil
}

var defaultTable = NewTable(regions, manufacturers)

// Default returns the built-in table shared by the process.
func Default() *Table { return defaultTable }
