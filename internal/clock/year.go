package clock

import (
	"context"
	"errors"
	"fmt"
)

// DateTimeKey is the response field carrying the date string
const DateTimeKey = "currentDateTime"

var (
	// ErrMissingField is returned when the response has no DateTimeKey
	ErrMissingField = errors.New("missing field")
	// ErrInvalidFormat is returned when the date matches no known format
	ErrInvalidFormat = errors.New("invalid format")
)

// Fetcher retrieves a decoded clock response
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]any, error)
}

// FetchFunc adapts a function to Fetcher
type FetchFunc func(ctx context.Context) (map[string]any, error)

// Fetch calls f
func (f FetchFunc) Fetch(ctx context.Context) (map[string]any, error) {
	return f(ctx)
}

// Reading is the result of a successful lookup
type Reading struct {
	Year   int        `json:"year"`
	Format DateFormat `json:"format"`
	Raw    string     `json:"raw"`
}

// Lookup fetches a response and parses the year out of it
func Lookup(ctx context.Context, f Fetcher) (Reading, error) {
	resp, err := f.Fetch(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("fetch clock: %w", err)
	}

	v, ok := resp[DateTimeKey]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s", ErrMissingField, DateTimeKey)
	}
	raw, ok := v.(string)
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s is %T, not a string", ErrInvalidFormat, DateTimeKey, v)
	}

	year, format, err := ParseYear(raw)
	if err != nil {
		return Reading{}, err
	}

	return Reading{Year: year, Format: format, Raw: raw}, nil
}

// ExtractYear fetches a response and returns its year
func ExtractYear(ctx context.Context, f Fetcher) (int, error) {
	r, err := Lookup(ctx, f)
	if err != nil {
		return 0, err
	}
	return r.Year, nil
}
