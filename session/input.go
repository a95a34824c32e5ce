package session

import "strings"

// lineBuffer accumulates typed input and hands it out one complete line
// at a time. Guests poll it through the readLine host call; until a
// newline arrives they see the not-ready sentinel and nothing is
// consumed.
type lineBuffer struct {
	pending string
}

// Push appends text to the buffer. Newlines arrive as part of the text;
// the buffer never synthesizes them.
func (b *lineBuffer) Push(text string) {
	b.pending += text
}

// ReadLine returns the text before the first newline and consumes it,
// newline included. The remainder stays buffered for the next call. ok
// is false when no complete line exists yet.
func (b *lineBuffer) ReadLine() (string, bool) {
	i := strings.IndexByte(b.pending, '\n')
	if i < 0 {
		return "", false
	}
	line := b.pending[:i]
	b.pending = b.pending[i+1:]
	return line, true
}
