package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PayloadMarker prefixes the significant line of an event block.
const PayloadMarker = "data:"

var (
	// ErrNoPayload indicates an event block without a "data:" line, such as a
	// keep-alive comment or a bare "event:" line.
	ErrNoPayload = errors.New("event block has no data line")

	// ErrUnexpectedShape indicates a JSON payload that is neither a token nor
	// an end marker.
	ErrUnexpectedShape = errors.New("payload is neither a token nor an end marker")
)

// Decode classifies a single event block. It never fails: anything that is
// not a well formed token or end payload is returned as a SignalMalformed
// carrying the raw block and the reason.
func Decode(block string) Signal {
	payload, ok := payloadLine(block)
	if !ok {
		return Malformed(block, ErrNoPayload)
	}

	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return Malformed(block, fmt.Errorf("parsing payload: %w", err))
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return Malformed(block, ErrUnexpectedShape)
	}

	// An end marker wins over a token in the same payload.
	if truthy(obj["end"]) {
		return End()
	}

	if token, ok := obj["token"].(string); ok {
		return Token(token)
	}

	return Malformed(block, ErrUnexpectedShape)
}

// payloadLine returns the value of the first line starting with the payload
// marker, with a single leading whitespace character removed.
func payloadLine(block string) (string, bool) {
	for line := range strings.Lines(block) {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		value, ok := strings.CutPrefix(line, PayloadMarker)
		if !ok {
			continue
		}

		if r, size := utf8.DecodeRuneInString(value); size > 0 && unicode.IsSpace(r) {
			value = value[size:]
		}
		return value, true
	}

	return "", false
}

// truthy reports whether a decoded JSON value counts as set: false, null,
// zero, NaN and the empty string do not.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}
