package vin

// FirstModelYear and LastModelYear bound every decodable model year.
const (
	FirstModelYear = 1980
	LastModelYear  = 2039
)

// yearCycle is the length of the model year code cycle.
const yearCycle = 30

// yearCodes lists the model year characters in cycle order, starting at 1980.
const yearCodes = "ABCDEFGHJKLMNPRSTVWXY123456789"

var baseYears = func() map[byte]int {
	m := make(map[byte]int, len(yearCodes))
	for i := 0; i < len(yearCodes); i++ {
		m[yearCodes[i]] = FirstModelYear + i
	}
	return m
}()

const (
	yearIndex  = 9 // position 10
	cycleIndex = 6 // position 7
)

// DecodeYear returns the model year of a normalized VIN. It returns false if s
// is not a valid VIN or position 10 holds no year code.
//
// The same 30 codes cover 1980-2009 and 2010-2039. A digit at position 7 selects
// the first cycle, a letter the second.
func DecodeYear(s string) (int, bool) {
	if !StructurallyValid(s) || !CheckDigitValid(s) {
		return 0, false
	}
	year, ok := baseYears[s[yearIndex]]
	if !ok {
		return 0, false
	}
	if c := s[cycleIndex]; c < '0' || c > '9' {
		year += yearCycle
	}
	return year, true
}

// YearCode returns the position 10 character used for year, the inverse of
// DecodeYear's table lookup. Both cycles share a code.
func YearCode(year int) (byte, bool) {
	if year < FirstModelYear || year > LastModelYear {
		return 0, false
	}
	return yearCodes[(year-FirstModelYear)%yearCycle], true
}
