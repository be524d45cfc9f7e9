package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pior/kvclient"
)

func newShutdownCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "shutdown [address]",
		Short: "Stop a server",
		Long: `Stop a server. The address defaults to the first configured server.

The server acknowledges by closing the connection without a reply.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := ""
			if len(args) == 1 {
				addr = args[0]
			} else if len(a.config.Servers) > 0 {
				addr = a.config.Servers[0]
			}
			if addr == "" {
				return kvclient.ErrNoServers
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Shut down server %s? [y/N]: ", addr)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Scan()
				if strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			dialer := &kvclient.Dialer{Timeout: a.config.ConnectTimeout, Logger: a.logger}
			conn, err := dialer.Dial(ctx, addr)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", addr, err)
			}

			if err := conn.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shut down %s: %w", addr, err)
			}

			a.logger.Info("Server shut down", zap.String("server", addr))
			fmt.Fprintf(cmd.OutOrStdout(), "Server %s shut down.\n", addr)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
