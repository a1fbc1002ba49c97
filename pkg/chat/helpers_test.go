package chat_test

import (
	"io"
	"net/http"
	"sync/atomic"

	testutils "github.com/papercomputeco/ssechat/pkg/utils/test"
)

var (
	tokenEvent = testutils.TokenEvent
	endEvent   = testutils.EndEvent
)

type notification = testutils.Notification

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// scriptedBody returns its chunks one Read at a time, then err (io.EOF when
// nil).
type scriptedBody struct {
	chunks [][]byte
	err    error
	closed atomic.Bool
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		if b.err == nil {
			return 0, io.EOF
		}
		return 0, b.err
	}

	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	if len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *scriptedBody) Close() error {
	b.closed.Store(true)
	return nil
}

// scriptedDoer answers every request with a 200 carrying body.
func scriptedDoer(body io.ReadCloser) doerFunc {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       body,
		}, nil
	}
}
