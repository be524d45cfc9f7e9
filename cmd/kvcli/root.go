package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/internal/env"
	"github.com/pior/kvclient/internal/output"
)

// app is the state shared by the subcommands, set up by PersistentPreRunE.
type app struct {
	// flags
	servers        []string
	outputFormat   string
	connectTimeout time.Duration
	timeout        time.Duration
	logLevel       string

	config    *env.Config
	logger    *zap.Logger
	formatter output.Formatter
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "kvcli",
		Short: "Send commands to key-value servers",
		Long: `kvcli sends requests to one or more key-value servers.

Keys are spread over the servers with the same jump hash as the Go client,
so values written with kvcli can be read by applications and the other way
around. Defaults come from KV_* environment variables and .env.local.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringSliceVarP(&a.servers, "servers", "s", nil, "server addresses (default from KV_SERVERS)")
	flags.StringVarP(&a.outputFormat, "output", "o", "", "output format: text, json, yaml (default from KV_OUTPUT)")
	flags.DurationVar(&a.connectTimeout, "connect-timeout", 0, "how long to retry refused connections (default from KV_CONNECT_TIMEOUT)")
	flags.DurationVar(&a.timeout, "timeout", 10*time.Second, "deadline of each command")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from KV_LOG_LEVEL)")

	root.AddCommand(
		newExecCmd(a),
		newPipelineCmd(a),
		newKeysCmd(a),
		newCommandsCmd(a),
		newShutdownCmd(a),
		newBenchCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config, err := env.LoadConfig(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if cmd.Flags().Changed("servers") {
		config.Servers = a.servers
	}
	if a.outputFormat != "" {
		config.Output = a.outputFormat
	}
	if a.connectTimeout > 0 {
		config.ConnectTimeout = a.connectTimeout
	}
	if a.logLevel != "" {
		config.LogLevel = a.logLevel
	}
	a.config = config

	a.logger, err = env.MakeLogger(config.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.formatter, err = output.NewFormatter(config.Output)
	return err
}

func (a *app) clientConfig() kvclient.Config {
	return kvclient.Config{
		MaxSize:        a.config.PoolSize,
		ConnectTimeout: a.config.ConnectTimeout,
		Logger:         a.logger,
	}
}

func (a *app) newClient() (*kvclient.Client, error) {
	return kvclient.NewClient(kvclient.NewStaticServers(a.config.Servers...), a.clientConfig())
}

// commandContext bounds a command with the --timeout deadline.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) print(cmd *cobra.Command, data any) {
	fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(data))
}
