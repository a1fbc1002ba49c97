package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ssechat/pkg/chat"
	testutils "github.com/papercomputeco/ssechat/pkg/utils/test"
)

var _ = Describe("Session", func() {
	var (
		sink *testutils.RecordingSink
		ids  *chat.SequenceGenerator
	)

	BeforeEach(func() {
		sink = &testutils.RecordingSink{}
		ids = &chat.SequenceGenerator{Prefix: "m"}
	})

	newClient := func(endpoint string, doer chat.Doer) *chat.Client {
		client, err := chat.NewClient(chat.Config{
			Endpoint:   endpoint,
			Sink:       sink,
			HTTPClient: doer,
			IDs:        ids,
		})
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	Describe("request", func() {
		It("posts the message as JSON and asks for an event stream", func() {
			var (
				method, path, contentType, accept string
				body                              map[string]any
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				method, path = r.Method, r.URL.Path
				contentType = r.Header.Get("Content-Type")
				accept = r.Header.Get("Accept")
				_ = json.NewDecoder(r.Body).Decode(&body)
				_, _ = w.Write(endEvent)
			}))
			defer server.Close()

			_, err := newClient(server.URL+"/", nil).Send(context.Background(), "hello")
			Expect(err).NotTo(HaveOccurred())

			Expect(method).To(Equal(http.MethodPost))
			Expect(path).To(Equal(chat.StreamPath))
			Expect(contentType).To(Equal("application/json"))
			Expect(accept).To(Equal("text/event-stream"))
			Expect(body).To(Equal(map[string]any{"message": "hello"}))
		})

		It("allocates the user id before the assistant id", func() {
			s := newClient("http://unused", nil).NewSession("hi")
			Expect(s.UserID()).To(Equal("m1"))
			Expect(s.ID()).To(Equal("m2"))
			Expect(s.Message()).To(Equal("hi"))
			Expect(s.State()).To(Equal(chat.StateRunning))
		})
	})

	Describe("streaming", func() {
		It("applies five tokens in order then completes", func() {
			body := &scriptedBody{chunks: [][]byte{
				tokenEvent("a"), tokenEvent("b"), tokenEvent("c"), tokenEvent("d"), tokenEvent("e"),
				endEvent,
				tokenEvent("late"),
			}}

			s, err := newClient("http://backend", scriptedDoer(body)).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateCompleted))
			Expect(s.Tokens()).To(Equal(5))
			Expect(body.closed.Load()).To(BeTrue())

			Expect(sink.Events()).To(Equal([]notification{
				{Kind: "append", ID: s.ID(), Text: "a"},
				{Kind: "append", ID: s.ID(), Text: "b"},
				{Kind: "append", ID: s.ID(), Text: "c"},
				{Kind: "append", ID: s.ID(), Text: "d"},
				{Kind: "append", ID: s.ID(), Text: "e"},
				{Kind: "complete", ID: s.ID()},
			}))
		})

		It("ignores events after end within the same chunk", func() {
			chunk := append(append(tokenEvent("a"), endEvent...), tokenEvent("b")...)
			body := &scriptedBody{chunks: [][]byte{chunk}}

			s, err := newClient("http://backend", scriptedDoer(body)).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.Text(s.ID())).To(Equal("a"))
			Expect(sink.ForID(s.ID())).To(HaveLen(2))
		})

		It("reassembles events split across arbitrary reads", func() {
			var stream []byte
			for _, tok := range []string{"héllo", " ", "wörld", " 🙂"} {
				stream = append(stream, tokenEvent(tok)...)
			}
			stream = append(stream, endEvent...)

			chunks := make([][]byte, 0, len(stream))
			for i := range stream {
				chunks = append(chunks, stream[i:i+1])
			}

			s, err := newClient("http://backend", scriptedDoer(&scriptedBody{chunks: chunks})).
				Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(sink.Text(s.ID())).To(Equal("héllo wörld 🙂"))
			Expect(s.Tokens()).To(Equal(4))
		})

		It("skips malformed events without affecting the session", func() {
			body := &scriptedBody{chunks: [][]byte{
				tokenEvent("a"),
				[]byte("data: not-json\n\n"),
				[]byte(": keep-alive\n\n"),
				[]byte("data: {\"content\":\"x\"}\n\n"),
				tokenEvent("b"),
				endEvent,
			}}

			s, err := newClient("http://backend", scriptedDoer(body)).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateCompleted))
			Expect(sink.Text(s.ID())).To(Equal("ab"))
			Expect(sink.ForID(s.ID())).To(HaveLen(3))
		})

		It("completes on a graceful close without an end event", func() {
			body := &scriptedBody{chunks: [][]byte{
				tokenEvent("a"),
				[]byte("data: {\"token\":\"unterminated\"}"),
			}}

			s, err := newClient("http://backend", scriptedDoer(body)).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateCompleted))
			Expect(s.Err()).NotTo(HaveOccurred())
			Expect(sink.ForID(s.ID())).To(Equal([]notification{
				{Kind: "append", ID: s.ID(), Text: "a"},
				{Kind: "complete", ID: s.ID()},
			}))
		})

		It("completes on an empty body", func() {
			s, err := newClient("http://backend", scriptedDoer(&scriptedBody{})).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateCompleted))
		})

		It("refuses to run twice", func() {
			s := newClient("http://backend", scriptedDoer(&scriptedBody{chunks: [][]byte{endEvent}})).NewSession("x")
			Expect(s.Run(context.Background())).To(Succeed())
			Expect(s.Run(context.Background())).To(MatchError(chat.ErrSessionStarted))
			Expect(sink.ForID(s.ID())).To(HaveLen(1))
		})
	})

	Describe("transport failures", func() {
		It("reports a read error after two tokens", func() {
			body := &scriptedBody{
				chunks: [][]byte{tokenEvent("a"), tokenEvent("b")},
				err:    errors.New("connection reset by peer"),
			}

			s, err := newClient("http://backend", scriptedDoer(body)).Send(context.Background(), "x")
			Expect(err).To(MatchError(ContainSubstring("connection reset by peer")))
			Expect(s.State()).To(Equal(chat.StateErrored))
			Expect(s.Err()).To(Equal(err))
			Expect(body.closed.Load()).To(BeTrue())

			events := sink.ForID(s.ID())
			Expect(events).To(HaveLen(3))
			Expect(events[0]).To(Equal(notification{Kind: "append", ID: s.ID(), Text: "a"}))
			Expect(events[1]).To(Equal(notification{Kind: "append", ID: s.ID(), Text: "b"}))
			Expect(events[2].Kind).To(Equal("error"))
			Expect(events[2].Text).To(ContainSubstring("connection reset by peer"))
		})

		It("reports a failed request", func() {
			doer := doerFunc(func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			})

			s, err := newClient("http://backend", doer).Send(context.Background(), "x")
			Expect(err).To(MatchError(ContainSubstring("connection refused")))
			Expect(s.State()).To(Equal(chat.StateErrored))
			Expect(sink.ForID(s.ID())).To(Equal([]notification{
				{Kind: "error", ID: s.ID(), Text: err.Error()},
			}))
		})

		It("reports a missing body", func() {
			doer := doerFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK}, nil
			})

			s, err := newClient("http://backend", doer).Send(context.Background(), "x")
			Expect(err).To(MatchError(chat.ErrNoBody))
			Expect(s.State()).To(Equal(chat.StateErrored))
			Expect(sink.ForID(s.ID())).To(Equal([]notification{
				{Kind: "error", ID: s.ID(), Text: "no response body"},
			}))
		})

		It("reports a non-2xx status with the response body", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "backend exploded", http.StatusInternalServerError)
			}))
			defer server.Close()

			s, err := newClient(server.URL, nil).Send(context.Background(), "x")
			Expect(err).To(MatchError(chat.ErrUnexpectedStatus))
			Expect(err.Error()).To(ContainSubstring("500"))
			Expect(err.Error()).To(ContainSubstring("backend exploded"))
			Expect(s.State()).To(Equal(chat.StateErrored))
		})

		It("errors when the context is cancelled mid-stream", func() {
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(tokenEvent("a"))
				w.(http.Flusher).Flush()
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer server.Close()
			defer close(release)

			ctx, cancel := context.WithCancel(context.Background())
			client := newClient(server.URL, nil)
			s := client.NewSession("x")

			go func() {
				defer GinkgoRecover()
				Eventually(func() string { return sink.Text(s.ID()) }).Should(Equal("a"))
				cancel()
			}()

			err := s.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateErrored))
		})
	})

	Describe("against a live server", func() {
		It("releases the connection once the end event arrives", func() {
			done := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(tokenEvent("hi"))
				_, _ = w.Write(endEvent)
				w.(http.Flusher).Flush()

				// Keep the response open; only the client hanging up ends it.
				<-r.Context().Done()
				close(done)
			}))
			defer server.Close()

			s, err := newClient(server.URL, nil).Send(context.Background(), "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(chat.StateCompleted))
			Expect(sink.Text(s.ID())).To(Equal("hi"))
			Eventually(done).WithTimeout(5 * time.Second).Should(BeClosed())
		})

		It("keeps concurrent sessions independent", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Message string `json:"message"`
				}
				_ = json.NewDecoder(r.Body).Decode(&req)

				w.Header().Set("Content-Type", "text/event-stream")
				for _, ch := range "echo: " + req.Message {
					payload, _ := json.Marshal(map[string]string{"token": string(ch)})
					_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
					w.(http.Flusher).Flush()
					time.Sleep(time.Millisecond)
				}
				_, _ = w.Write(endEvent)
			}))
			defer server.Close()

			client := newClient(server.URL, nil)
			messages := []string{"first message", "second message", "third"}
			sessions := make([]*chat.Session, len(messages))
			for i, msg := range messages {
				sessions[i] = client.NewSession(msg)
			}

			var wg sync.WaitGroup
			for _, s := range sessions {
				wg.Go(func() {
					defer GinkgoRecover()
					Expect(s.Run(context.Background())).To(Succeed())
				})
			}
			wg.Wait()

			for i, s := range sessions {
				Expect(sink.Text(s.ID())).To(Equal("echo: " + messages[i]))

				events := sink.ForID(s.ID())
				Expect(events[len(events)-1].Kind).To(Equal("complete"))
				for _, n := range events[:len(events)-1] {
					Expect(n.Kind).To(Equal("append"))
				}
			}
		})
	})

	Describe("NewClient", func() {
		It("requires an endpoint", func() {
			_, err := chat.NewClient(chat.Config{Sink: sink})
			Expect(err).To(HaveOccurred())
		})

		It("requires a sink", func() {
			_, err := chat.NewClient(chat.Config{Endpoint: "http://backend"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("State", func() {
		It("has readable names", func() {
			Expect(chat.StateRunning.String()).To(Equal("running"))
			Expect(chat.StateCompleted.String()).To(Equal("completed"))
			Expect(chat.StateErrored.String()).To(Equal("errored"))
		})
	})
})

var _ = Describe("IDGenerator", func() {
	It("generates unique UUIDs", func() {
		g := chat.UUIDGenerator{}
		a, b := g.NewID(), g.NewID()
		Expect(a).To(HaveLen(36))
		Expect(a).NotTo(Equal(b))
	})

	It("generates sequential ids", func() {
		g := &chat.SequenceGenerator{Prefix: "msg-"}
		Expect(g.NewID()).To(Equal("msg-1"))
		Expect(g.NewID()).To(Equal("msg-2"))
	})
})
