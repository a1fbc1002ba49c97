package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
)

// EndEvent is the stream terminator as the backend sends it.
var EndEvent = []byte("data: {\"end\": true}\n\n")

// TokenEvent encodes text as a single SSE token event.
func TokenEvent(text string) []byte {
	payload, _ := json.Marshal(map[string]string{"token": text})
	return fmt.Appendf(nil, "data: %s\n\n", payload)
}

// NewEchoStreamServer starts a server answering every POST with an SSE
// stream of "echo: <message>", one rune per event and flushed per event,
// followed by the end event.
func NewEchoStreamServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, ch := range "echo: " + req.Message {
			_, _ = w.Write(TokenEvent(string(ch)))
			if flusher != nil {
				flusher.Flush()
			}
		}
		_, _ = w.Write(EndEvent)
	}))
}
