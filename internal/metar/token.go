package metar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedReport is returned when a report's header (station identifier
// and timestamp) cannot be located. It is the only condition that aborts a
// decode; every other anomaly degrades to an absent field.
var ErrMalformedReport = errors.New("malformed METAR report")

// Token is a single whitespace-delimited group together with its position
// in the original report.
type Token struct {
	Text     string
	Position int
}

var stationRegex = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Tokenize splits a raw report into its ordered groups. Empty tokens are
// discarded. It fails if the input is empty or the first group (after an
// optional METAR/SPECI type prefix) is not shaped like a station identifier.
func Tokenize(raw string) ([]Token, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty report: %w", ErrMalformedReport)
	}

	tokens := make([]Token, 0, len(fields))
	for i, f := range fields {
		tokens = append(tokens, Token{Text: f, Position: i})
	}

	first := tokens[0].Text
	if first == "METAR" || first == "SPECI" {
		if len(tokens) < 2 {
			return nil, fmt.Errorf("no station identifier after report type: %w", ErrMalformedReport)
		}
		first = tokens[1].Text
	}
	if !stationRegex.MatchString(first) {
		return nil, fmt.Errorf("no station identifier in %q: %w", first, ErrMalformedReport)
	}

	return tokens, nil
}
