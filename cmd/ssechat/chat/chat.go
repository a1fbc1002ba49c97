// Package chatcmder provides the chat command: an interactive prompt that
// streams assistant replies from the chat backend into the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/ssechat/pkg/chat"
	"github.com/papercomputeco/ssechat/pkg/cliui"
	"github.com/papercomputeco/ssechat/pkg/config"
	"github.com/papercomputeco/ssechat/pkg/eventstream"
	"github.com/papercomputeco/ssechat/pkg/eventstream/kafka"
	"github.com/papercomputeco/ssechat/pkg/eventstream/nop"
	"github.com/papercomputeco/ssechat/pkg/logger"
	"github.com/papercomputeco/ssechat/pkg/sink"
	"github.com/papercomputeco/ssechat/pkg/utils"
	"github.com/papercomputeco/ssechat/pkg/worker"
)

const exitCommand = "/exit"

type chatCommander struct {
	endpoint string
	batch    bool
	workers  uint
	debug    bool

	eventStreamProvider string
	eventStreamBrokers  []string
	eventStreamTopic    string

	in  io.Reader
	out io.Writer
	err io.Writer

	logger *slog.Logger
}

const chatLongDesc string = `Start a chat session with the chat backend.

Each message is posted to the backend's /chat/stream endpoint and the reply
is rendered as it streams in. Type /exit or press Ctrl+D to quit; Ctrl+C
cancels the reply currently streaming.

When stdin is not a terminal (or with --batch), every non-empty input line
is sent as its own message, the replies stream concurrently, and the
transcript is printed once all of them finished.

Message events can be mirrored to Kafka with --eventstream-provider kafka.

Examples:
  ssechat chat
  ssechat chat --endpoint http://localhost:9000
  printf 'hello\nworld\n' | ssechat chat --workers 2`

const chatShortDesc string = "Chat with the streaming backend"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{
		in:  os.Stdin,
		out: os.Stdout,
		err: os.Stderr,
	}

	registryKeys := []string{
		config.FlagEndpoint,
		config.FlagEventStreamProvider,
		config.FlagEventStreamBrokers,
		config.FlagEventStreamTopic,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, registryKeys)

			cmder.endpoint = v.GetString("client.endpoint")
			cmder.eventStreamProvider = v.GetString("eventstream.provider")
			cmder.eventStreamBrokers = config.SplitList(strings.Join(v.GetStringSlice("eventstream.brokers"), ","))
			cmder.eventStreamTopic = v.GetString("eventstream.topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventStreamProvider, &cmder.eventStreamProvider)
	config.AddStringSliceFlag(cmd, config.Registry, config.FlagEventStreamBrokers, &cmder.eventStreamBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventStreamTopic, &cmder.eventStreamTopic)
	cmd.Flags().BoolVarP(&cmder.batch, "batch", "b", false, "Send each input line as a message and print the transcript")
	cmd.Flags().UintVarP(&cmder.workers, "workers", "w", 3, "Replies streamed at once in batch mode")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(c.err),
		logger.WithComponent("chat"),
	)

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			c.logger.Warn("closing event publisher", "error", err)
		}
	}()

	batch := c.batch || !isTerminal(c.in)

	transcript := sink.NewTranscript()

	client, err := chat.NewClient(chat.Config{
		Endpoint: c.endpoint,
		Sink:     c.newSink(transcript, publisher, batch),
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating chat client: %w", err)
	}

	c.logger.Debug("chat client ready",
		"endpoint", c.endpoint,
		"batch", batch,
		"eventstream", c.eventStreamProvider,
	)

	if batch {
		return c.runBatch(ctx, client, transcript)
	}
	return c.runInteractive(ctx, client, transcript)
}

// newSink fans notifications out to the local sinks first and the event
// stream last, so rendering never waits on the broker.
func (c *chatCommander) newSink(transcript *sink.Transcript, publisher eventstream.Publisher, batch bool) chat.Sink {
	sinks := []chat.Sink{transcript}
	if !batch {
		sinks = append(sinks, sink.NewTerminal(c.out))
	}
	return sink.Multi(append(sinks, sink.NewPublishing(publisher, c.logger))...)
}

func (c *chatCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventStreamProvider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil
	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.eventStreamBrokers,
			Topic:   c.eventStreamTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event stream provider: %q (available: %s)",
			c.eventStreamProvider, strings.Join(config.EventStreamProviders(), ", "))
	}
}

func (c *chatCommander) runInteractive(ctx context.Context, client *chat.Client, transcript *sink.Transcript) error {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Backend:"),
		cliui.NameStyle.Render(c.endpoint),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == exitCommand {
			break
		}

		session := client.NewSession(input)
		transcript.AddUser(session.UserID(), input)

		c.logger.Debug("sending message",
			"message_id", session.ID(),
			"message", utils.Truncate(input, 40),
		)

		// Ctrl+C cancels only the reply in flight.
		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err := session.Run(runCtx)
		stop()

		if err != nil {
			// Already rendered in the message slot by the terminal sink.
			c.logger.Debug("message failed", "message_id", session.ID(), "error", err)
		}

		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) runBatch(ctx context.Context, client *chat.Client, transcript *sink.Transcript) error {
	messages, err := readMessages(c.in)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	pool, err := worker.NewPool(&worker.Config{
		Context:    ctx,
		NumWorkers: c.workers,
		QueueSize:  uint(len(messages)),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}

	sessions := make([]*chat.Session, 0, len(messages))
	for _, msg := range messages {
		session := client.NewSession(msg)
		transcript.AddUser(session.UserID(), msg)
		sessions = append(sessions, session)

		if !pool.Enqueue(worker.Job{Session: session}) {
			c.logger.Warn("dropped message, queue full", "message_id", session.ID())
		}
	}

	_ = cliui.Step(c.err, fmt.Sprintf("Streaming %d replies", len(sessions)), func() error {
		pool.Close()
		return nil
	})

	failed := c.printTranscript(sessions, transcript)
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(sessions))
	}
	return nil
}

// printTranscript writes each exchange in input order and returns how many
// replies failed. A reply the transcript never saw was never sent.
func (c *chatCommander) printTranscript(sessions []*chat.Session, transcript *sink.Transcript) int {
	failed := 0
	fmt.Fprintln(c.out)
	for _, session := range sessions {
		fmt.Fprintf(c.out, "%s%s\n", cliui.UserPrompt, session.Message())

		reply, ok := transcript.Get(session.ID())
		fmt.Fprintf(c.out, "%s%s", cliui.AssistantPrompt, reply.Text)
		switch {
		case !ok:
			failed++
			fmt.Fprintf(c.out, " %s %s", cliui.FailMark, cliui.ErrorStyle.Render("Error occurred: message was not sent"))
		case reply.State == chat.StateErrored:
			failed++
			fmt.Fprintf(c.out, " %s %s", cliui.FailMark, cliui.ErrorStyle.Render("Error occurred: "+reply.Error))
		}
		fmt.Fprint(c.out, "\n\n")
	}
	return failed
}

// readMessages returns the non-empty trimmed lines of r, stopping at the
// exit command.
func readMessages(r io.Reader) ([]string, error) {
	var messages []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == exitCommand {
			break
		}
		if line != "" {
			messages = append(messages, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return messages, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
