package models

import "strings"

// TokenSequence is the normalized, whitespace-free token stream of one source file.
type TokenSequence []string

// String joins the tokens with single spaces.
func (ts TokenSequence) String() string {
	return strings.Join(ts, " ")
}

// SourceFile holds the path and raw content of a file read for comparison
type SourceFile struct {
	Path string
	Text []byte
}
