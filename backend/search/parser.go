// Package search parses scorebook search queries of the form
// "status:completed date:2026-04..2026-06 tigers" into structured
// filters plus free text.
package search

import (
	"strings"
	"unicode"
)

// Operator defines the type of comparison for a filter.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // for date:2026-01..2026-02
)

// Filter is one structured criterion derived from the query string.
type Filter struct {
	Key      string   // e.g. "event", "date", "status"
	Value    string   // e.g. "Finals", "2026-01-01", "completed"
	MaxValue string   // Used only for OpRange
	Operator Operator
}

// Query is the parsed search query.
type Query struct {
	Filters  []Filter
	FreeText []string
}

// Parse parses a search query string. Tokens of the form key:value
// become filters; everything else is free text. Values may be quoted
// to include spaces, and date values accept range (..) and comparison
// (>=, <=, >, <) prefixes.
func Parse(input string) Query {
	q := Query{
		Filters:  make([]Filter, 0),
		FreeText: make([]string, 0),
	}

	for _, token := range tokenize(input) {
		key, val, ok := strings.Cut(token, ":")
		if !ok {
			q.FreeText = append(q.FreeText, unquote(token))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		// A second unquoted colon makes the token ambiguous; keep it
		// as free text.
		if strings.Contains(val, ":") && !strings.HasPrefix(val, "\"") && !strings.HasPrefix(val, "'") {
			q.FreeText = append(q.FreeText, token)
			continue
		}
		if key == "" || val == "" {
			q.FreeText = append(q.FreeText, token)
			continue
		}

		q.Filters = append(q.Filters, parseFilter(key, val))
	}

	return q
}

func parseFilter(key, val string) Filter {
	if lo, hi, ok := strings.Cut(val, ".."); ok {
		return Filter{Key: key, Value: lo, MaxValue: hi, Operator: OpRange}
	}
	for _, op := range []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess} {
		if strings.HasPrefix(val, string(op)) {
			return Filter{
				Key:      key,
				Value:    unquote(strings.TrimPrefix(val, string(op))),
				Operator: op,
			}
		}
	}
	return Filter{Key: key, Value: unquote(val), Operator: OpEqual}
}

// tokenize splits the string by spaces, respecting quotes.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, r := range input {
		switch {
		case inQuote:
			current.WriteRune(r)
			if r == quoteChar {
				inQuote = false
			}
		case unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		case r == '"' || r == '\'':
			inQuote = true
			quoteChar = r
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
