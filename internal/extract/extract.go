// File: internal/extract/extract.go
//
// The extractor pulls the embedded solution list out of the page's hydration
// payload. The payload is serialized game state (JSON, often JSON nested
// inside a JSON string, hence the escaped-quote variant), and the solution
// appears as `"solution":[3,1,4,...]` somewhere inside it.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// matcher is one strategy for locating the solution list inside the payload.
// Each regexp captures the inner text between the list brackets.
type matcher struct {
	name string
	re   *regexp.Regexp
}

// matchers are tried in fixed priority order; the first match wins. Once a
// matcher has hit, later ones are never consulted, even if parsing the
// captured text fails.
var matchers = []matcher{
	// The payload is usually JSON embedded in a JSON string, so the key
	// arrives with escaped quotes: \"solution\":[...]
	{name: "escaped", re: regexp.MustCompile(`(?s)\\"solution\\":\[(.*?)\]`)},
	// Plain-quote variant for payloads that are not double-encoded.
	{name: "plain", re: regexp.MustCompile(`(?s)"solution":\[(.*?)\]`)},
	// Loose fallback: the word solution followed eventually by a bracketed
	// list. Tolerates key renames and whitespace drift.
	{name: "loose", re: regexp.MustCompile(`(?s)solution.*?\[(.*?)\]`)},
}

// Extract parses rawText for the embedded solution list and returns it as an
// ordered sequence of non-negative target identifiers.
//
// Failure modes: ErrDataEmpty when rawText is empty or whitespace,
// ErrPatternNotMatched when no matcher hits, and *ParseError when the first
// matching capture is not a flat list of integers >= 0. There are no partial
// solutions: any bad element fails the whole extraction.
func Extract(rawText string) (schemas.Solution, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrDataEmpty
	}

	for _, m := range matchers {
		sub := m.re.FindStringSubmatch(rawText)
		if sub == nil {
			continue
		}
		// First match wins. A parse failure here is terminal; falling back
		// to a looser pattern would risk replaying garbage.
		return parseList(m.name, strings.TrimSpace(sub[1]))
	}
	return nil, ErrPatternNotMatched
}

// parseList wraps the captured inner text back into a list literal and
// decodes it structurally.
func parseList(pattern, inner string) (schemas.Solution, error) {
	wrapped := "[" + inner + "]"

	var raw []float64
	if err := json.UnmarshalFromString(wrapped, &raw); err != nil {
		return nil, &ParseError{Pattern: pattern, Reason: "not a flat list of numbers", Err: err}
	}

	solution := make(schemas.Solution, len(raw))
	for i, n := range raw {
		if n < 0 {
			return nil, &ParseError{
				Pattern: pattern,
				Reason:  fmt.Sprintf("element %d is negative (%v)", i, n),
			}
		}
		if n != math.Trunc(n) {
			return nil, &ParseError{
				Pattern: pattern,
				Reason:  fmt.Sprintf("element %d is not a whole number (%v)", i, n),
			}
		}
		solution[i] = int(n)
	}
	return solution, nil
}
