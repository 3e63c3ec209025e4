package vin

// alphabet is every character allowed in a VIN. I, O and Q are excluded.
const alphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

// positionWeights holds the checksum weight for positions 1-17. The check digit
// slot (position 9) weighs 0.
var positionWeights = [Length]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

var transliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

// checkDigitIndex is the 0-based index of position 9.
const checkDigitIndex = 8

// StructurallyValid reports whether s is 17 characters from the VIN alphabet.
func StructurallyValid(s string) bool {
	return invalidCharAt(s) == 0 && len(s) == Length
}

// invalidCharAt returns the 1-indexed position of the first character outside
// the alphabet, or 0.
func invalidCharAt(s string) int {
	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return i + 1
		}
	}
	return 0
}

func inAlphabet(c byte) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if c < 'A' || c > 'Z' {
		return false
	}
	return c != 'I' && c != 'O' && c != 'Q'
}

// charValue returns the checksum value of c.
func charValue(c byte) (int, bool) {
	if c >= '0' && c <= '9' {
		return int(c - '0'), true
	}
	n, ok := transliteration[c]
	return n, ok
}

// ComputeCheckDigit returns the check character s should carry at position 9.
// It returns false when s is not 17 characters or holds a character with no
// checksum value.
func ComputeCheckDigit(s string) (byte, bool) {
	if len(s) != Length {
		return 0, false
	}
	sum := 0
	for i := 0; i < Length; i++ {
		if i == checkDigitIndex {
			continue
		}
		n, ok := charValue(s[i])
		if !ok {
			return 0, false
		}
		sum += n * positionWeights[i]
	}
	rem := sum % 11
	if rem == 10 {
		return 'X', true
	}
	return byte('0' + rem), true
}

// CheckDigitValid reports whether position 9 of s matches the computed check
// character. Input of the wrong length is invalid.
func CheckDigitValid(s string) bool {
	want, ok := ComputeCheckDigit(s)
	return ok && s[checkDigitIndex] == want
}
