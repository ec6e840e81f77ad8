// Package clock extracts the current year from a world clock response.
//
// The response is a JSON object whose currentDateTime value is either
// YYYY-MM-DD or DD.MM.YYYY, optionally followed by a time component.
// Fetching is delegated to a Fetcher so the HTTP transport stays outside
// this package.
package clock
