// Package servecmder provides the serve command running the mock chat backend.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ssechat/backend"
	"github.com/papercomputeco/ssechat/pkg/config"
	"github.com/papercomputeco/ssechat/pkg/logger"
)

type ServeCommander struct {
	listen     string
	tokenDelay string
	logFile    string
	debug      bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the mock chat backend.

The backend echoes every message back as a stream of server-sent events,
one token per character, and keeps conversation histories in memory.

Endpoints:
  GET    /health                       Health check
  GET    /api                          Service info
  POST   /chat                         Complete reply as JSON
  POST   /chat/stream                  Streamed reply as SSE
  GET    /conversations                Conversation ids
  GET    /conversations/:id/history    Conversation history
  DELETE /conversations/:id            Clear a conversation

Examples:
  ssechat serve
  ssechat serve --listen :9000 --token-delay 0
  ssechat serve --log-file backend.log`

const serveShortDesc string = "Run the mock chat backend"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	registryKeys := []string{
		config.FlagListen,
		config.FlagTokenDelay,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, registryKeys)

			cmder.listen = v.GetString("server.listen")
			cmder.tokenDelay = v.GetString("server.token_delay")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagTokenDelay, &cmder.tokenDelay)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run() error {
	backendConfig, err := c.backendConfig()
	if err != nil {
		return err
	}

	var closeLog func() error
	c.logger, closeLog, err = c.newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	server := backend.NewServer(backendConfig, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("backend error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

func (c *ServeCommander) backendConfig() (backend.Config, error) {
	delay, err := time.ParseDuration(c.tokenDelay)
	if err != nil {
		return backend.Config{}, fmt.Errorf("invalid token delay %q: %w", c.tokenDelay, err)
	}
	if delay < 0 {
		return backend.Config{}, fmt.Errorf("invalid token delay %q: must not be negative", c.tokenDelay)
	}

	return backend.Config{
		ListenAddr: c.listen,
		TokenDelay: delay,
	}, nil
}

// newLogger builds the pretty stderr logger, fanned out to a JSON file
// logger when --log-file is set.
func (c *ServeCommander) newLogger() (*slog.Logger, func() error, error) {
	pretty := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
		logger.WithComponent("backend"),
	)

	if c.logFile == "" {
		return pretty, func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
		logger.WithComponent("backend"),
	)

	return logger.Multi(pretty, file), f.Close, nil
}
