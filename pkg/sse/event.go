// Package sse provides an incremental decoder for SSE (Server-Sent Events)
// framed chat responses. A Splitter reassembles raw body chunks into event
// blocks and Decode turns each block into a typed Signal.
//
// Only the framing used by the chat backend is supported: events are
// separated by a blank line and carry a single JSON "data:" payload of the
// shape {"token": "..."} or {"end": true}.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "fmt"

// SignalKind tags the variant held by a Signal.
type SignalKind int

const (
	// SignalMalformed is any event block that could not be classified.
	SignalMalformed SignalKind = iota

	// SignalToken carries one incremental fragment of assistant text.
	SignalToken

	// SignalEnd marks the logical end of the response stream.
	SignalEnd
)

func (k SignalKind) String() string {
	switch k {
	case SignalToken:
		return "token"
	case SignalEnd:
		return "end"
	case SignalMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("SignalKind(%d)", int(k))
	}
}

// Signal is the decoded form of a single event block.
type Signal struct {
	Kind SignalKind

	// Token is the text fragment for SignalToken.
	Token string

	// Raw is the original block for SignalMalformed, kept for diagnostics.
	Raw string

	// Err describes why a block was classified as SignalMalformed.
	Err error
}

// Token returns a SignalToken carrying text.
func Token(text string) Signal {
	return Signal{Kind: SignalToken, Token: text}
}

// End returns a SignalEnd.
func End() Signal {
	return Signal{Kind: SignalEnd}
}

// Malformed returns a SignalMalformed for the raw block with the given reason.
func Malformed(raw string, err error) Signal {
	return Signal{Kind: SignalMalformed, Raw: raw, Err: err}
}
