package clock

import (
	"encoding/json"
	"fmt"
)

// DateFormat identifies a recognized date layout
type DateFormat int

const (
	FormatUnknown DateFormat = iota
	FormatYMD                // YYYY-MM-DD
	FormatDMY                // DD.MM.YYYY
)

func (f DateFormat) String() string {
	switch f {
	case FormatYMD:
		return "YYYY-MM-DD"
	case FormatDMY:
		return "DD.MM.YYYY"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the format by its layout name
func (f DateFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// datePattern locates the separator that identifies a format and the
// four year digits that follow from it
type datePattern struct {
	format    DateFormat
	sepIndex  int
	sep       byte
	yearStart int
}

// Checked in order; the first separator match decides the format.
var datePatterns = []datePattern{
	{format: FormatYMD, sepIndex: 4, sep: '-', yearStart: 0},
	{format: FormatDMY, sepIndex: 5, sep: '.', yearStart: 6},
}

// DetectFormat reports which layout s uses
func DetectFormat(s string) DateFormat {
	if p, ok := match(s); ok {
		return p.format
	}
	return FormatUnknown
}

func match(s string) (datePattern, bool) {
	for _, p := range datePatterns {
		if len(s) > p.sepIndex && s[p.sepIndex] == p.sep {
			return p, true
		}
	}
	return datePattern{}, false
}

// ParseYear extracts the four-digit year from s
func ParseYear(s string) (int, DateFormat, error) {
	p, ok := match(s)
	if !ok {
		return 0, FormatUnknown, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	end := p.yearStart + 4
	if len(s) < end {
		return 0, p.format, fmt.Errorf("%w: %q has no year for %s", ErrInvalidFormat, s, p.format)
	}

	year := 0
	for _, c := range []byte(s[p.yearStart:end]) {
		if c < '0' || c > '9' {
			return 0, p.format, fmt.Errorf("%w: %q has no year for %s", ErrInvalidFormat, s, p.format)
		}
		year = year*10 + int(c-'0')
	}

	return year, p.format, nil
}
