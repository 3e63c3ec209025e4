// Package vin decodes and validates 17-character Vehicle Identification Numbers.
//
// A Vin wraps an arbitrary candidate string. Nothing in this package panics or
// returns an error for malformed input: validity is reported by Valid, optional
// values use the comma-ok idiom, and Validate offers a diagnostic error layered
// on top of Valid.
package vin

import (
	"sync"

	"github.com/WessleyAI/vindecoder/engine/wmi"
)

// Length is the fixed length of a VIN.
const Length = 17

// DefaultLastN is used by Last when the requested length is out of range.
const DefaultLastN = 8

// Resolver maps a WMI to its manufacturer, country and region.
type Resolver interface {
	Resolve(code string) (wmi.Info, bool)
}

// ModelResolver is implemented by resolvers that can also name the vehicle model
// for a full VIN.
type ModelResolver interface {
	ResolveModel(vin string) (string, bool)
}

// Vin is an immutable Vehicle Identification Number candidate.
type Vin struct {
	raw        string
	normalized string
	resolver   Resolver

	yearOnce sync.Once
	year     int
	yearOK   bool
}

// Option configures a Vin.
type Option func(*Vin)

// WithResolver overrides the WMI resolver (default wmi.Default()).
func WithResolver(r Resolver) Option {
	return func(v *Vin) { v.resolver = r }
}

// New wraps raw. Any string is accepted.
func New(raw string, opts ...Option) *Vin {
	v := &Vin{
		raw:        raw,
		normalized: Normalize(raw),
	}
	for _, o := range opts {
		o(v)
	}
	if v.resolver == nil {
		v.resolver = wmi.Default()
	}
	return v
}

// Normalize uppercases the ASCII letters a-z in s. Every other byte, including
// non-ASCII runes and invalid UTF-8, is kept as is. It does not trim.
func Normalize(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// String returns the normalized VIN.
func (v *Vin) String() string { return v.normalized }

// Raw returns the input exactly as given to New.
func (v *Vin) Raw() string { return v.raw }

// Last returns the trailing n characters. n <= 0 or n > len falls back to 8.
// Strings shorter than the fallback are returned whole.
func (v *Vin) Last(n int) string {
	s := v.normalized
	if n <= 0 || n > len(s) {
		n = DefaultLastN
	}
	if n > len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Valid reports whether the VIN passes structural and check digit validation.
func (v *Vin) Valid() bool {
	return StructurallyValid(v.normalized) && CheckDigitValid(v.normalized)
}

// WMI returns positions 1-3.
func (v *Vin) WMI() string { return slice(v.normalized, 1, 3) }

// VDS returns positions 4-9, check digit included.
func (v *Vin) VDS() string { return slice(v.normalized, 4, 9) }

// VIS returns positions 10-17.
func (v *Vin) VIS() string { return slice(v.normalized, 10, 17) }

// CheckDigit returns position 9.
func (v *Vin) CheckDigit() string { return slice(v.normalized, 9, 9) }

// ModelYear returns the decoded model year. The result is computed once per Vin.
func (v *Vin) ModelYear() (int, bool) {
	v.yearOnce.Do(func() {
		v.year, v.yearOK = DecodeYear(v.normalized)
	})
	return v.year, v.yearOK
}

// Country returns the country assigned to the WMI.
func (v *Vin) Country() (string, bool) {
	info, ok := v.info()
	if !ok || info.Country == "" {
		return "", false
	}
	return info.Country, true
}

// Region returns the region assigned to the WMI.
func (v *Vin) Region() (string, bool) {
	info, ok := v.info()
	if !ok || info.Region == "" {
		return "", false
	}
	return info.Region, true
}

// Manufacturer returns the manufacturer assigned to the WMI.
func (v *Vin) Manufacturer() (string, bool) {
	info, ok := v.info()
	if !ok || info.Manufacturer == "" {
		return "", false
	}
	return info.Manufacturer, true
}

// Model returns the vehicle model when the resolver implements ModelResolver.
func (v *Vin) Model() (string, bool) {
	if !v.Valid() {
		return "", false
	}
	mr, ok := v.resolver.(ModelResolver)
	if !ok {
		return "", false
	}
	return mr.ResolveModel(v.normalized)
}

func (v *Vin) info() (wmi.Info, bool) {
	if !v.Valid() {
		return wmi.Info{}, false
	}
	return v.resolver.Resolve(v.WMI())
}

// slice returns the 1-indexed inclusive range [from, to] of s, clipped to
// whatever s actually holds.
func slice(s string, from, to int) string {
	start := from - 1
	if start >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[start:to]
}
