package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/ssechat/pkg/chat"
	"github.com/papercomputeco/ssechat/pkg/cliui"
)

// Terminal renders assistant messages to a terminal as they stream. The
// first fragment of a message prints the assistant prompt; completion ends
// the line and failures are rendered inline after the partial text.
//
// Streamed text is stripped of ANSI escape sequences so a backend cannot
// drive the user's terminal.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	started map[string]bool
}

var _ chat.Sink = (*Terminal)(nil)

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:       w,
		started: make(map[string]bool),
	}
}

func (t *Terminal) Append(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.begin(id)
	fmt.Fprint(t.w, ansi.Strip(text))
}

func (t *Terminal) MarkComplete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started[id] {
		fmt.Fprintln(t.w)
	}
	delete(t.started, id)
}

func (t *Terminal) MarkError(id, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.begin(id) {
		fmt.Fprint(t.w, " ")
	}
	fmt.Fprintf(t.w, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render("Error occurred: "+ansi.Strip(description)))
	delete(t.started, id)
}

// begin prints the assistant prompt on the first write for id. It reports
// whether text had already been written for id. Callers hold mu.
func (t *Terminal) begin(id string) bool {
	if t.started[id] {
		return true
	}
	t.started[id] = true
	fmt.Fprint(t.w, cliui.AssistantPrompt)
	return false
}
