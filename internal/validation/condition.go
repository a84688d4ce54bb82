package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/normalize"
)

// Condition is a compiled conditional rule expression.
//
// Supported forms:
//   - comparisons: `field == 'yes'`, `field != "none"`, `field == yes`
//   - composition: `a == 'yes' && b != 'no'`, `a == 'yes' || b == 'yes'`
//
// && and || have equal precedence and are applied strictly left to right:
// `a || b && c` is `(a || b) && c`. Parentheses are rejected.
type Condition struct {
	source string
	root   condNode
}

// ParseCondition compiles a condition expression.
func ParseCondition(input string) (*Condition, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("condition: empty expression")
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	root, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", trimmed, err)
	}

	return &Condition{source: trimmed, root: root}, nil
}

// MustParseCondition is like ParseCondition but panics on error.
func MustParseCondition(input string) *Condition {
	c, err := ParseCondition(input)
	if err != nil {
		panic(err)
	}

	return c
}

// String returns the source expression.
func (c *Condition) String() string {
	return c.source
}

// Eval evaluates the condition against doc.
func (c *Condition) Eval(doc Document) bool {
	return c.root.eval(doc)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(input) {
		ch := input[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(' || ch == ')':
			return nil, fmt.Errorf("condition: parentheses are not supported at offset %d", i)
		case strings.HasPrefix(input[i:], "=="):
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case strings.HasPrefix(input[i:], "!="):
			tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
			i += 2
		case strings.HasPrefix(input[i:], "&&"):
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case ch == '=' || ch == '!' || ch == '&' || ch == '|':
			return nil, fmt.Errorf("condition: unexpected %q at offset %d", ch, i)
		case ch == '\'' || ch == '"':
			end := strings.IndexByte(input[i+1:], ch)
			if end < 0 {
				return nil, errors.New("condition: unterminated string literal")
			}

			tokens = append(tokens, token{kind: tokenString, raw: input[i+1 : i+1+end]})
			i += end + 2
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}

			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[start:i]})
		}
	}

	return tokens, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '=', '!', '&', '|', '\'', '"':
		return true
	default:
		return false
	}
}

type condNode interface {
	eval(doc Document) bool
}

type condAnd struct {
	left  condNode
	right condNode
}

func (n condAnd) eval(doc Document) bool {
	return n.left.eval(doc) && n.right.eval(doc)
}

type condOr struct {
	left  condNode
	right condNode
}

func (n condOr) eval(doc Document) bool {
	return n.left.eval(doc) || n.right.eval(doc)
}

type condCompare struct {
	field   string
	negate  bool
	literal string
}

// eval compares case-insensitively. Boolean-like values also match by
// polarity, so `hasLivestock == 'yes'` holds for true and "1".
// A missing field never equals a literal.
func (n condCompare) eval(doc Document) bool {
	value, ok := doc.Field(n.field)

	equal := ok && valuesEqual(value, n.literal)
	if n.negate {
		return !equal
	}

	return equal
}

func valuesEqual(value any, literal string) bool {
	if strings.EqualFold(strings.TrimSpace(jsonpath.Project(value)), literal) {
		return true
	}

	switch {
	case normalize.IsPositive(literal):
		return normalize.IsPositive(value)
	case normalize.IsNegative(literal):
		return normalize.IsNegative(value)
	default:
		return false
	}
}

type parser struct {
	tokens []token
	pos    int
}

// parse reads: compare { ("&&" | "||") compare }, folding to the left.
func (p *parser) parse() (condNode, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		op := p.tokens[p.pos]
		if op.kind != tokenAnd && op.kind != tokenOr {
			return nil, fmt.Errorf("unexpected token %q", op.raw)
		}

		p.pos++

		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}

		if op.kind == tokenAnd {
			left = condAnd{left: left, right: right}
		} else {
			left = condOr{left: left, right: right}
		}
	}

	return left, nil
}

func (p *parser) parseCompare() (condNode, error) {
	field, err := p.expect("field name", tokenIdentifier)
	if err != nil {
		return nil, err
	}

	op, err := p.expect("'==' or '!='", tokenEq, tokenNeq)
	if err != nil {
		return nil, err
	}

	lit, err := p.expect("literal", tokenString, tokenIdentifier)
	if err != nil {
		return nil, err
	}

	return condCompare{field: field.raw, negate: op.kind == tokenNeq, literal: lit.raw}, nil
}

// expect consumes the next token, which must be one of kinds.
func (p *parser) expect(what string, kinds ...tokenKind) (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, fmt.Errorf("expected %s at end of expression", what)
	}

	t := p.tokens[p.pos]
	for _, k := range kinds {
		if t.kind == k {
			p.pos++
			return t, nil
		}
	}

	return token{}, fmt.Errorf("expected %s, got %q", what, t.raw)
}
