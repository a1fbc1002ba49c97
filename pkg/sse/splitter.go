package sse

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// Delimiter separates consecutive event blocks in the stream.
const Delimiter = "\n\n"

// Splitter reassembles an arbitrarily chunked SSE body into complete event
// blocks. It is owned by a single stream and is not safe for concurrent use.
//
//	chunk ─▶ Feed ─▶ [buffer] ─▶ block, block, ... (rest stays buffered)
//
// A chunk may end in the middle of a multi-byte UTF-8 character. Those
// trailing bytes are held back and prefixed to the next chunk so that no
// character is ever split, dropped or replaced.
type Splitter struct {
	// buffer holds decoded text that has not yet been resolved into a block.
	buffer string

	// partial holds the leading bytes of an unfinished UTF-8 sequence.
	partial []byte
}

// NewSplitter returns an empty Splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Feed appends chunk to the buffer and returns the sequence of event blocks
// that are complete so far, in arrival order. The sequence is lazy: blocks are
// cut from the buffer as they are consumed, so a consumer that stops early
// leaves the remaining blocks buffered for the next call.
func (s *Splitter) Feed(chunk []byte) iter.Seq[string] {
	data := chunk
	if len(s.partial) > 0 {
		data = append(s.partial, chunk...)
		s.partial = nil
	}

	n := incompleteTail(data)
	s.buffer += string(data[:len(data)-n])
	if n > 0 {
		s.partial = append([]byte(nil), data[len(data)-n:]...)
	}

	return s.blocks
}

// Buffered returns the text retained for the next Feed, including any held
// back partial character bytes.
func (s *Splitter) Buffered() string {
	return s.buffer + string(s.partial)
}

func (s *Splitter) blocks(yield func(string) bool) {
	for {
		block, rest, ok := strings.Cut(s.buffer, Delimiter)
		if !ok {
			return
		}

		s.buffer = rest
		if !yield(block) {
			return
		}
	}
}

// incompleteTail returns how many trailing bytes of b form the beginning of a
// UTF-8 sequence that needs more bytes to complete. Invalid bytes are not held
// back, they pass through as-is.
func incompleteTail(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}

		if c < utf8.RuneSelf || utf8.FullRune(b[len(b)-i:]) {
			return 0
		}
		return i
	}

	return 0
}
