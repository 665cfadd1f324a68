package parser

import "fmt"

// TokenKind tags the kind of lexeme a Token carries.
type TokenKind string

const (
	TokIdent  TokenKind = "ident"
	TokNumber TokenKind = "number"
	TokPunct  TokenKind = "punct" // punctuators and keywords are both matched on Text
	TokEOF    TokenKind = "eof"
)

// Token is one lexeme: its kind, its literal text (for idents and
// punctuators) or decoded value (for numbers), and its byte offset in the
// source, used only for diagnostics.
type Token struct {
	Kind  TokenKind
	Text  string
	Value int32 // decoded value, only meaningful when Kind == TokNumber
	Pos   int
}

// String renders a token for error messages.
func (t Token) String() string {
	if t.Kind == TokEOF {
		return "<eof>"
	}
	return fmt.Sprintf("%q", t.Text)
}

// keywords recognized by the language; every other identifier is a plain
// TokIdent that resolves through scope lookup.
var keywords = map[string]bool{
	"int": true, "void": true, "return": true,
	"if": true, "else": true, "while": true, "for": true,
	"break": true, "continue": true,
	"switch": true, "case": true, "default": true,
	"__ebreak": true,
}
