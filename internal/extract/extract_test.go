// File: internal/extract/extract_test.go
package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/autosolve-cli/api/schemas"
)

func TestExtractEscapedQuotePattern(t *testing.T) {
	raw := `{"data":"{\"grid\":{\"rows\":6},\"solution\":[1,2,3],\"par\":40}"}`
	sol, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, schemas.Solution{1, 2, 3}, sol)
}

func TestExtractPlainQuoteFallback(t *testing.T) {
	raw := `{"grid":{"rows":6},"solution":[4,5],"par":40}`
	sol, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, schemas.Solution{4, 5}, sol)
}

func TestExtractLooseFallback(t *testing.T) {
	raw := `window.__solutionData = [7, 8, 9];`
	sol, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, schemas.Solution{7, 8, 9}, sol)
}

func TestExtractMultilinePayload(t *testing.T) {
	raw := "{\"solution\":[0,\n 11,\n 22]}"
	sol, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, schemas.Solution{0, 11, 22}, sol)
}

func TestExtractPrefersEscapedOverPlain(t *testing.T) {
	// Both variants present: the escaped pattern has priority.
	raw := `{\"solution\":[1,2]} tail {"solution":[9,9]}`
	sol, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, schemas.Solution{1, 2}, sol)
}

func TestExtractEmptyList(t *testing.T) {
	sol, err := Extract(`{"solution":[]}`)
	require.NoError(t, err)
	assert.Empty(t, sol)
}

func TestExtractRejectsNegative(t *testing.T) {
	_, err := Extract(`{"solution":[1,-2,3]}`)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "plain", perr.Pattern)
}

func TestExtractRejectsNonNumeric(t *testing.T) {
	_, err := Extract(`{"solution":[1,"two",3]}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorContains(t, err, "flat list")
}

func TestExtractRejectsNestedList(t *testing.T) {
	_, err := Extract(`{"solution":[1,[2,3]]}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestExtractRejectsFractional(t *testing.T) {
	_, err := Extract(`{"solution":[1,2.5]}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorContains(t, err, "whole number")
}

func TestExtractEmptyPayload(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t "} {
		_, err := Extract(raw)
		assert.ErrorIs(t, err, ErrDataEmpty, "raw=%q", raw)
	}
}

func TestExtractNoPatternMatch(t *testing.T) {
	_, err := Extract(`{"grid":{"rows":6},"par":40}`)
	assert.ErrorIs(t, err, ErrPatternNotMatched)
}

func TestParseFailureIsTerminalNotAFallbackTrigger(t *testing.T) {
	// The escaped pattern matches first but its capture is unparseable. The
	// plain pattern later in the text holds a perfectly good list; it must
	// NOT be consulted.
	raw := `{\"solution\":[1,oops]} and also {"solution":[4,5]}`
	_, err := Extract(raw)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "escaped", perr.Pattern)
	assert.False(t, errors.Is(err, ErrPatternNotMatched))
}
