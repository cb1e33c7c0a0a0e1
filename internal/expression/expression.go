// Package expression parses and validates theme value expressions.
//
// A value is literal text with optional references to other attributes of the
// same merged namespace, written {!name}:
//
//	1px solid {!borderColor}
package expression

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	refOpen  = "{!"
	refClose = "}"
)

var referencePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// TokenKind distinguishes literal text from attribute references.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenReference
)

// Token is a single parsed fragment of a value expression.
type Token struct {
	Kind TokenKind
	Text string
	// Offset is the byte offset of the token within the source value.
	Offset int
}

// SyntaxError reports a malformed value expression.
type SyntaxError struct {
	Value   string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid expression %q at offset %d: %s", e.Value, e.Offset, e.Message)
}

// Parse splits value into literal and reference tokens.
func Parse(value string) ([]Token, error) {
	var tokens []Token
	offset := 0

	for offset < len(value) {
		rest := value[offset:]
		start := strings.Index(rest, refOpen)
		if start < 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: rest, Offset: offset})
			break
		}
		if start > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: rest[:start], Offset: offset})
		}

		open := offset + start
		body := value[open+len(refOpen):]
		end := strings.Index(body, refClose)
		if end < 0 {
			return nil, &SyntaxError{Value: value, Offset: open, Message: "unterminated reference"}
		}

		name := strings.TrimSpace(body[:end])
		if name == "" {
			return nil, &SyntaxError{Value: value, Offset: open, Message: "empty reference"}
		}
		if !referencePattern.MatchString(name) {
			return nil, &SyntaxError{Value: value, Offset: open, Message: fmt.Sprintf("invalid reference name %q", name)}
		}

		tokens = append(tokens, Token{Kind: TokenReference, Text: name, Offset: open})
		offset = open + len(refOpen) + end + len(refClose)
	}

	return tokens, nil
}

// References returns the attribute names referenced by value in order of
// appearance. Malformed values yield no references.
func References(value string) []string {
	tokens, _ := Parse(value)
	var refs []string
	for _, tok := range tokens {
		if tok.Kind == TokenReference {
			refs = append(refs, tok.Text)
		}
	}
	return refs
}

// IsValidName reports whether name may appear inside a reference.
func IsValidName(name string) bool {
	return referencePattern.MatchString(name)
}
