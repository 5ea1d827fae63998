package command

import "strings"

// Tokenizer splits a string on runs of delimiter characters. Next consumes
// the leading token and the delimiter run that follows it; Remaining returns
// whatever has not been consumed yet, so the tail of a command line can be
// passed through verbatim (values may contain delimiters).
type Tokenizer struct {
	s      string
	delims string
}

// NewTokenizer creates a tokenizer over s using the given delimiter set.
func NewTokenizer(s, delims string) *Tokenizer {
	return &Tokenizer{s: s, delims: delims}
}

// Next returns the next token. An empty string means the input is exhausted.
func (t *Tokenizer) Next() string {
	// Skip a leading delimiter run.
	start := 0
	for start < len(t.s) && strings.ContainsRune(t.delims, rune(t.s[start])) {
		start++
	}

	end := start
	for end < len(t.s) && !strings.ContainsRune(t.delims, rune(t.s[end])) {
		end++
	}

	token := t.s[start:end]

	// Consume the delimiter run after the token.
	next := end
	for next < len(t.s) && strings.ContainsRune(t.delims, rune(t.s[next])) {
		next++
	}
	t.s = t.s[next:]

	return token
}

// Remaining returns the unconsumed tail.
func (t *Tokenizer) Remaining() string {
	return t.s
}
