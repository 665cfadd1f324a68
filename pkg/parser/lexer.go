// Package parser turns C-subset source text into an ast.Program: lexing,
// scope-and-symbol resolution with name mangling, the mixed-fix declarator
// grammar, and static type inference, all performed in a single recursive-
// descent pass with explicit backtracking (a saved token index, restored on
// a failed alternative) rather than a combinator library.
package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// punctuators is every recognized punctuator, longest first so a hand-rolled
// maximal-munch lexer need only try each prefix in order: trying "<<=" before
// "<<" before "<" naturally prevents "<<" from being split into "<" "<", and
// so on for every overlapping family the grammar defines.
var punctuators = []string{
	"<<=", ">>=",
	"&&", "||", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"++", "--",
	"(", ")", "{", "}", ";", ",",
	"+", "-", "~", "!", "*", "/", "%", "|", "^", "&",
	"<", ">", "?", ":", "=",
}

// Lex tokenizes the entire source up front into a slice the parser walks
// with an explicit cursor, so backtracking is just restoring an integer
// index rather than unreading runes.
func Lex(source string) ([]Token, error) {
	var tokens []Token
	pos := 0

	for pos < len(source) {
		pos = skipWhitespace(source, pos)
		if pos >= len(source) {
			break
		}

		start := pos
		switch {
		case isIdentStart(source[pos]):
			for pos < len(source) && isIdentPart(source[pos]) {
				pos++
			}
			tokens = append(tokens, Token{Kind: TokIdent, Text: source[start:pos], Pos: start})

		case isDigit(source[pos]):
			text, value, next, err := lexNumber(source, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: TokNumber, Text: text, Value: value, Pos: start})
			pos = next

		default:
			matched := matchPunctuator(source, pos)
			if matched == "" {
				return nil, errors.Errorf("parser: unexpected character %q at offset %d", source[pos], pos)
			}
			tokens = append(tokens, Token{Kind: TokPunct, Text: matched, Pos: start})
			pos += len(matched)
		}
	}

	tokens = append(tokens, Token{Kind: TokEOF, Pos: pos})
	return tokens, nil
}

func skipWhitespace(source string, pos int) int {
	for pos < len(source) {
		switch source[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func matchPunctuator(source string, pos int) string {
	for _, p := range punctuators {
		if strings.HasPrefix(source[pos:], p) {
			return p
		}
	}
	return ""
}

// lexNumber decodes a hex ('0x', >=2 digits), binary ('0b', >=2 digits),
// octal ('0o', >=2 digits) or decimal (>=1 digit) literal.
func lexNumber(source string, pos int) (text string, value int32, next int, err error) {
	start := pos

	if pos+1 < len(source) && source[pos] == '0' {
		switch source[pos+1] {
		case 'x', 'X':
			return lexRadix(source, pos, 2, "0123456789abcdefABCDEF", 16)
		case 'b', 'B':
			return lexRadix(source, pos, 2, "01", 2)
		case 'o', 'O':
			return lexRadix(source, pos, 2, "01234567", 8)
		}
	}

	for pos < len(source) && isDigit(source[pos]) {
		pos++
	}
	text = source[start:pos]
	n, convErr := strconv.ParseInt(text, 10, 64)
	if convErr != nil {
		return "", 0, 0, errors.Wrapf(convErr, "parser: invalid decimal literal %q", text)
	}
	return text, int32(n), pos, nil
}

// lexRadix decodes a prefixed literal (0x/0b/0o) requiring at least two
// digits after the two-character prefix.
func lexRadix(source string, pos int, prefixLen int, digits string, base int) (string, int32, int, error) {
	start := pos
	pos += prefixLen
	digitsStart := pos

	for pos < len(source) && strings.IndexByte(digits, source[pos]) >= 0 {
		pos++
	}
	if pos-digitsStart < 2 {
		return "", 0, 0, errors.Errorf("parser: literal at offset %d requires at least 2 digits after prefix", start)
	}

	text := source[start:pos]
	n, err := strconv.ParseInt(source[digitsStart:pos], base, 64)
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "parser: invalid literal %q", text)
	}
	return text, int32(n), pos, nil
}
