// Package query implements the advanced search query syntax.
//
// A single free-text string like
//
//	title:Python author:"Donald Knuth" rating:>=4 NOT java
//
// is split into tokens, then partitioned into a full-text query (handed to
// the search index) and exact/range filters (lowered to SQL against the book
// relation, see sql.go).
package query

import (
	"strconv"
	"strings"
)

type TokenType string

const (
	TokenField    TokenType = "field"
	TokenText     TokenType = "text"
	TokenPhrase   TokenType = "phrase"
	TokenOperator TokenType = "operator"
)

// Token is one lexical unit of a search query.
type Token struct {
	Type     TokenType
	Field    string // set for field tokens, already alias-normalized
	Value    string
	Operator string // comparison operator on field tokens: =, >, >=, <, <=
	Quoted   bool   // value was a double-quoted phrase
	Negated  bool
}

// TermFilter is a single author/subject constraint with its polarity.
type TermFilter struct {
	Value   string
	Negated bool
}

// Filters holds the filter-only side of a parsed query. Authors and subjects
// live in many-to-many relations the flat FTS index cannot see, so they are
// collected here instead of being emitted into the FTS expression.
type Filters struct {
	Subjects  []TermFilter
	Authors   []TermFilter
	Rating    map[string]float64 // comparator (=, >, >=, <, <=) -> value
	Favorite  *bool
	Status    string
	Format    string
	Language  string
	Series    string
	Publisher string
	Extra     map[string]string // unrecognized fields, skipped by SQL lowering
}

// IsZero reports whether no filter was parsed at all.
func (f Filters) IsZero() bool {
	return len(f.Subjects) == 0 && len(f.Authors) == 0 && len(f.Rating) == 0 &&
		f.Favorite == nil && f.Status == "" && f.Format == "" && f.Language == "" &&
		f.Series == "" && f.Publisher == "" && len(f.Extra) == 0
}

// ParsedQuery is the result of Parse. FTSQuery is empty when the query
// contained no full-text terms.
type ParsedQuery struct {
	Tokens   []Token
	FTSQuery string
	Filters  Filters
}

// fieldAliases maps user-facing shorthands to canonical field names.
var fieldAliases = map[string]string{
	"tag":      "subject",
	"tags":     "subject",
	"subjects": "subject",
	"lang":     "language",
	"fmt":      "format",
	"type":     "format",
}

// ftsFields are the fields forwarded to the full-text index. author and
// subject are nominally FTS-eligible but are special-cased into Filters.
var ftsFields = map[string]bool{
	"title":       true,
	"description": true,
	"text":        true,
	"author":      true,
	"subject":     true,
}

// filterFields are matched exactly (or by LIKE) against the relational store.
var filterFields = map[string]bool{
	"language":  true,
	"format":    true,
	"series":    true,
	"publisher": true,
	"rating":    true,
	"favorite":  true,
	"status":    true,
}

// Parse tokenizes a search query and partitions it into a full-text
// expression and relational filters. It never fails: malformed pieces
// degrade into inert filters or plain text terms.
func Parse(raw string) ParsedQuery {
	parsed := ParsedQuery{Filters: Filters{}}
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return parsed
	}
	parsed.Tokens = tokens

	var ftsParts []string
	for _, tok := range tokens {
		switch tok.Type {
		case TokenOperator:
			// A literal OR joins the full-text terms accumulated so far;
			// AND is the implicit default and adds nothing.
			if tok.Value == "OR" && len(ftsParts) > 0 {
				ftsParts = append(ftsParts, "OR")
			}

		case TokenText, TokenPhrase:
			term := tok.Value
			if tok.Type == TokenPhrase {
				term = `"` + term + `"`
			}
			if tok.Negated {
				term = "NOT " + term
			}
			ftsParts = append(ftsParts, term)

		case TokenField:
			classifyField(&parsed.Filters, &ftsParts, tok)
		}
	}

	parsed.FTSQuery = strings.Join(ftsParts, " ")
	return parsed
}

// classifyField routes one field token into either the FTS expression or the
// relational filters, applying the fixed field taxonomy.
func classifyField(f *Filters, ftsParts *[]string, tok Token) {
	switch tok.Field {
	case "subject":
		f.Subjects = append(f.Subjects, TermFilter{Value: tok.Value, Negated: tok.Negated})
	case "author":
		f.Authors = append(f.Authors, TermFilter{Value: tok.Value, Negated: tok.Negated})

	case "title", "description", "text":
		field := tok.Field
		if field == "text" {
			// the indexed column carries the extracted file text
			field = "extracted_text"
		}
		value := tok.Value
		if tok.Quoted {
			value = `"` + value + `"`
		}
		term := field + ":" + value
		if tok.Negated {
			term = "NOT " + term
		}
		*ftsParts = append(*ftsParts, term)

	case "rating":
		f.Rating = parseRatingFilter(tok)
	case "favorite":
		v := parseBoolValue(tok.Value)
		f.Favorite = &v
	case "status":
		f.Status = tok.Value
	case "format":
		f.Format = tok.Value
	case "language":
		f.Language = tok.Value
	case "series":
		f.Series = tok.Value
	case "publisher":
		f.Publisher = tok.Value

	default:
		if f.Extra == nil {
			f.Extra = make(map[string]string)
		}
		f.Extra[tok.Field] = tok.Value
	}
}

// parseRatingFilter turns a rating token into a comparator map. A bare
// dash-separated pair ("3-5") becomes a two-sided inclusive range. A parse
// failure yields an empty map, which downstream lowering treats as no
// constraint at all.
func parseRatingFilter(tok Token) map[string]float64 {
	out := make(map[string]float64)

	if (tok.Operator == "" || tok.Operator == "=") && strings.Contains(tok.Value, "-") {
		parts := strings.SplitN(tok.Value, "-", 2)
		low, errLow := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		high, errHigh := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLow != nil || errHigh != nil {
			return out
		}
		out[">="] = low
		out["<="] = high
		return out
	}

	op := tok.Operator
	if op == "" {
		op = "="
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(tok.Value), 64)
	if err != nil {
		return out
	}
	out[op] = value
	return out
}

func parseBoolValue(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// tokenize scans the raw query left to right, consuming in priority order:
// whitespace, negation markers, OR/AND keywords, field:value pairs, quoted
// phrases, bare words.
func tokenize(raw string) []Token {
	var tokens []Token
	s := strings.TrimSpace(raw)
	negateNext := false

	i := 0
	for i < len(s) {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			i++
			continue
		}

		// NOT keyword flips negation for the next token
		if matchKeyword(s, i, "NOT") {
			negateNext = true
			i += 3
			continue
		}
		// a leading dash glued to the next token does the same
		if s[i] == '-' && i+1 < len(s) && s[i+1] != ' ' {
			negateNext = true
			i++
			continue
		}

		if matchKeyword(s, i, "OR") {
			tokens = append(tokens, Token{Type: TokenOperator, Value: "OR"})
			i += 2
			continue
		}
		if matchKeyword(s, i, "AND") {
			tokens = append(tokens, Token{Type: TokenOperator, Value: "AND"})
			i += 3
			continue
		}

		// field:value?
		if field, next, ok := scanFieldName(s, i); ok {
			tok := Token{Type: TokenField, Field: normalizeField(field), Negated: negateNext}
			negateNext = false
			i = next

			tok.Operator, i = scanOperator(s, i)
			tok.Value, tok.Quoted, i = scanValue(s, i)
			tokens = append(tokens, tok)
			continue
		}

		// quoted phrase
		if s[i] == '"' {
			value, _, next := scanQuoted(s, i)
			tokens = append(tokens, Token{Type: TokenPhrase, Value: value, Negated: negateNext})
			negateNext = false
			i = next
			continue
		}

		// bare word
		start := i
		for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' {
			i++
		}
		tokens = append(tokens, Token{Type: TokenText, Value: s[start:i], Negated: negateNext})
		negateNext = false
	}

	return tokens
}

// matchKeyword reports whether the case-insensitive keyword starts at pos
// and is followed by whitespace (a trailing bare keyword is just a word).
func matchKeyword(s string, pos int, keyword string) bool {
	end := pos + len(keyword)
	if end >= len(s) {
		return false
	}
	if !strings.EqualFold(s[pos:end], keyword) {
		return false
	}
	return s[end] == ' ' || s[end] == '\t' || s[end] == '\n'
}

// scanFieldName consumes an identifier immediately followed by a colon.
func scanFieldName(s string, pos int) (field string, next int, ok bool) {
	j := pos
	for j < len(s) && isFieldChar(s[j]) {
		j++
	}
	if j == pos || j >= len(s) || s[j] != ':' {
		return "", pos, false
	}
	return s[pos:j], j + 1, true
}

func isFieldChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// scanOperator consumes an optional comparison operator after the colon.
func scanOperator(s string, pos int) (op string, next int) {
	if pos+1 < len(s) && (s[pos:pos+2] == ">=" || s[pos:pos+2] == "<=") {
		return s[pos : pos+2], pos + 2
	}
	if pos < len(s) && (s[pos] == '>' || s[pos] == '<' || s[pos] == '=') {
		return string(s[pos]), pos + 1
	}
	return "", pos
}

// scanValue consumes either a quoted phrase or an unquoted run of non-space
// characters.
func scanValue(s string, pos int) (value string, quoted bool, next int) {
	if pos < len(s) && s[pos] == '"' {
		value, quoted, next = scanQuoted(s, pos)
		return value, quoted, next
	}
	start := pos
	for pos < len(s) && s[pos] != ' ' && s[pos] != '\t' && s[pos] != '\n' {
		pos++
	}
	return s[start:pos], false, pos
}

// scanQuoted consumes a double-quoted string starting at pos. An unclosed
// quote runs to the end of the input.
func scanQuoted(s string, pos int) (value string, quoted bool, next int) {
	j := pos + 1
	for j < len(s) && s[j] != '"' {
		j++
	}
	value = s[pos+1 : j]
	if j < len(s) {
		j++ // closing quote
	}
	return value, true, j
}

func normalizeField(field string) string {
	field = strings.ToLower(field)
	if canonical, ok := fieldAliases[field]; ok {
		return canonical
	}
	return field
}
