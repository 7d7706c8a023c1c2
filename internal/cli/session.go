package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/aggregate"
	"github.com/shinji-kodama/brotab/internal/config"
	"github.com/shinji-kodama/brotab/internal/logging"
	"github.com/shinji-kodama/brotab/internal/mediator"
	"github.com/shinji-kodama/brotab/internal/model"
	"github.com/shinji-kodama/brotab/internal/port"
)

// session bundles everything one command invocation needs: the resolved
// configuration, the logger, the port scanner and the mediator client.
// It is rebuilt on every invocation; nothing survives between runs.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	scanner   *port.Scanner
	mediators *mediator.Client
}

// newSession loads configuration from the environment, applies explicit
// flag overrides and wires up the collaborators.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "invalid configuration", err)
	}

	// Flags override the environment only when given explicitly; the flag
	// zero values are not meaningful defaults.
	flags := cmd.Flags()
	if flags.Changed("base-port") {
		cfg.BasePort = basePort
	}
	if flags.Changed("window") {
		cfg.Window = window
	}
	// Validate again: the overrides may have broken the window bounds.
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "invalid configuration", err)
	}

	// --verbose wins over BT_LOG_LEVEL.
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Config{Level: level, Format: cfg.LogFormat})
	logger.Debug("configuration loaded",
		slog.Int("base_port", cfg.BasePort),
		slog.Int("window", cfg.Window),
		slog.Duration("dial_timeout", cfg.DialTimeout),
		slog.Duration("fetch_timeout", cfg.FetchTimeout),
	)

	return &session{
		cfg:       cfg,
		logger:    logger,
		scanner:   port.NewScanner(port.WithTimeout(cfg.DialTimeout)),
		mediators: mediator.NewClient(cfg.FetchTimeout, mediator.WithLogger(logger)),
	}, nil
}

// scan returns the live mediator ports of the configured window.
func (s *session) scan(ctx context.Context) ([]model.Port, error) {
	ports, err := s.scanner.Scan(ctx, s.cfg.Base(), s.cfg.Window)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("port scan complete",
		slog.Int("base_port", s.cfg.BasePort),
		slog.Int("window", s.cfg.Window),
		slog.Int("live", len(ports)),
	)
	return ports, nil
}

// discover scans and assigns client letters to the live ports.
func (s *session) discover(ctx context.Context) ([]model.Client, error) {
	ports, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	return model.ClientsForPorts(ports)
}

// aggregator returns a TabAggregator backed by the session's mediator client.
func (s *session) aggregator() *aggregate.Aggregator {
	return aggregate.New(s.mediators, s.logger)
}
