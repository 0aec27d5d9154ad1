// Package transcript holds the recognized output text.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// Op is an edit applied to the text from outside the recognizer.
type Op string

const (
	OpSpace     Op = "space"
	OpBackspace Op = "backspace"
	OpClear     Op = "clear"
)

// Valid reports whether op is a known edit.
func (op Op) Valid() bool {
	switch op {
	case OpSpace, OpBackspace, OpClear:
		return true
	}
	return false
}

// Buffer is an append-only text buffer with simple edits.
// It is not safe for concurrent use.
type Buffer struct {
	sb strings.Builder
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds s verbatim.
func (b *Buffer) Append(s string) {
	b.sb.WriteString(s)
}

// AppendWord adds w as a separate word, inserting a space when the text does
// not already end in one.
func (b *Buffer) AppendWord(w string) {
	if b.sb.Len() > 0 && !b.EndsWith(" ") {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(w)
	b.sb.WriteByte(' ')
}

// Space appends a single space.
func (b *Buffer) Space() {
	b.sb.WriteByte(' ')
}

// Backspace removes the last character, if any.
func (b *Buffer) Backspace() {
	s := b.sb.String()
	if s == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s)
	b.sb.Reset()
	b.sb.WriteString(s[:len(s)-size])
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.sb.Reset()
}

// Apply performs an edit. Unknown ops are ignored.
func (b *Buffer) Apply(op Op) {
	switch op {
	case OpSpace:
		b.Space()
	case OpBackspace:
		b.Backspace()
	case OpClear:
		b.Clear()
	}
}

// EndsWith reports whether the text ends with s.
func (b *Buffer) EndsWith(s string) bool {
	return strings.HasSuffix(b.sb.String(), s)
}

// String returns the text.
func (b *Buffer) String() string {
	return b.sb.String()
}

// Len returns the text length in bytes.
func (b *Buffer) Len() int {
	return b.sb.Len()
}
