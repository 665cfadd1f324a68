package parser

import "github.com/pkg/errors"

// cursor is a backtracking-friendly view over a pre-lexed token stream: a
// plain integer index, snapshotted and restored around any alternative the
// grammar needs to try and abandon. This plays the role a combinator
// library's backtracking error would play, without requiring one: a failed
// alternative just resets pos and the caller tries the next production.
type cursor struct {
	tokens []Token
	pos    int
}

func newCursor(tokens []Token) *cursor { return &cursor{tokens: tokens} }

// mark snapshots the current position; restore(mark()) rewinds to it.
func (c *cursor) mark() int { return c.pos }

func (c *cursor) restore(m int) { c.pos = m }

// peek returns the token at the cursor without consuming it.
func (c *cursor) peek() Token { return c.tokens[c.pos] }

// peekAt returns the token 'offset' positions ahead without consuming
// anything, clamped to the final (EOF) token.
func (c *cursor) peekAt(offset int) Token {
	idx := c.pos + offset
	if idx >= len(c.tokens) {
		idx = len(c.tokens) - 1
	}
	return c.tokens[idx]
}

// advance consumes and returns the current token.
func (c *cursor) advance() Token {
	t := c.tokens[c.pos]
	if c.pos < len(c.tokens)-1 {
		c.pos++
	}
	return t
}

// atPunct reports whether the current token is the punctuator/keyword text.
func (c *cursor) atPunct(text string) bool {
	t := c.peek()
	return (t.Kind == TokPunct || t.Kind == TokIdent) && t.Text == text
}

// acceptPunct consumes the current token if it matches text, returning
// whether it did.
func (c *cursor) acceptPunct(text string) bool {
	if c.atPunct(text) {
		c.advance()
		return true
	}
	return false
}

// expectPunct consumes the current token if it matches text, or returns a
// hard error describing the mismatch.
func (c *cursor) expectPunct(text string) error {
	if c.acceptPunct(text) {
		return nil
	}
	return errors.Errorf("parser: expected %q, found %s at offset %d", text, c.peek(), c.peek().Pos)
}

// acceptIdent consumes and returns a plain (non-keyword) identifier.
func (c *cursor) acceptIdent() (string, bool) {
	t := c.peek()
	if t.Kind == TokIdent && !keywords[t.Text] {
		c.advance()
		return t.Text, true
	}
	return "", false
}
