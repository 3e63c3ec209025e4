package vin

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ValidationError.
var (
	ErrLength     = errors.New("VIN must be 17 characters")
	ErrCharacter  = errors.New("invalid VIN character")
	ErrCheckDigit = errors.New("check digit mismatch")
)

// Kind classifies a ValidationError.
type Kind int

const (
	KindLength Kind = iota + 1
	KindCharacter
	KindCheckDigit
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindCharacter:
		return "character"
	case KindCheckDigit:
		return "check_digit"
	default:
		return "unknown"
	}
}

// ValidationError explains why a VIN is not valid.
type ValidationError struct {
	Kind Kind
	// Position is 1-indexed. Set for KindCharacter and KindCheckDigit.
	Position int
	// Char is the offending character for KindCharacter, or the expected check
	// character for KindCheckDigit.
	Char   byte
	Length int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindLength:
		return fmt.Sprintf("%s (got %d)", ErrLength, e.Length)
	case KindCharacter:
		return fmt.Sprintf("%s %q at position %d", ErrCharacter, e.Char, e.Position)
	case KindCheckDigit:
		return fmt.Sprintf("%s: want %q at position %d", ErrCheckDigit, e.Char, e.Position)
	default:
		return "invalid VIN"
	}
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindLength:
		return ErrLength
	case KindCharacter:
		return ErrCharacter
	case KindCheckDigit:
		return ErrCheckDigit
	default:
		return nil
	}
}

// Validate returns nil for a valid VIN, otherwise the first failure found as a
// *ValidationError. Validate() == nil exactly when Valid() is true.
func (v *Vin) Validate() error {
	return Diagnose(v.normalized)
}

// Diagnose validates a normalized VIN. Length is checked before characters,
// characters before the check digit.
func Diagnose(s string) error {
	if len(s) != Length {
		return &ValidationError{Kind: KindLength, Length: len(s)}
	}
	if pos := invalidCharAt(s); pos != 0 {
		return &ValidationError{Kind: KindCharacter, Position: pos, Char: s[pos-1], Length: len(s)}
	}
	want, _ := ComputeCheckDigit(s)
	if s[checkDigitIndex] != want {
		return &ValidationError{Kind: KindCheckDigit, Position: checkDigitIndex + 1, Char: want, Length: len(s)}
	}
	return nil
}
