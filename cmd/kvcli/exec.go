package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pior/kvclient/internal/output"
	"github.com/pior/kvclient/wire"
)

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [arg...]",
		Short: "Send one command and print its reply",
		Long: `Send one command and print its reply.

Arguments are sent as bytes, except the numeric positions of EXPIRE, ZADD and
ZQUERY. Use the i:, f: and s: prefixes to force an Int, a Float or bytes.`,
		Example: `  kvcli exec SET counter i:42
  kvcli exec ZADD scores 4.5 alice
  kvcli exec ZQUERY scores 0 "" 0 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(args[0], args[1:])
			if err != nil {
				return err
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			resp, err := client.Execute(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to execute %s: %w", req.Command, err)
			}
			value, err := resp.Result()
			if err != nil {
				return err
			}

			a.print(cmd, output.Plain(value))
			return nil
		},
	}
}

// pipelineResult is one line of the pipeline output.
type pipelineResult struct {
	Command string `json:"command" yaml:"command"`
	Reply   any    `json:"reply" yaml:"reply"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newPipelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Send the commands read from stdin as one pipelined batch",
		Long: `Send the commands read from stdin as one pipelined batch.

Each line holds a command and its arguments, with the syntax of exec. Empty
lines and lines starting with # are skipped. Server errors are reported per
command; any other failure aborts the whole batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			p := client.Batch().Pipeline()
			var commands []string

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), wire.MaxLength)
			for lineNo := 1; scanner.Scan(); lineNo++ {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				req, err := parseLine(line)
				if err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
				p.AddRequest(req)
				commands = append(commands, req.Command.String())
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			results, err := p.Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to execute pipeline: %w", err)
			}

			lines := make([]pipelineResult, len(results))
			for i, r := range results {
				lines[i] = pipelineResult{Command: commands[i], Reply: output.Plain(r.Value)}
				if r.Err != nil {
					lines[i].Error = r.Err.Error()
				}
			}
			a.print(cmd, lines)
			return nil
		},
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys of every server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			keys, err := client.Keys(ctx)
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}
			a.print(cmd, keys)
			return nil
		},
	}
}

type commandRow struct {
	Code   uint8  `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Arity  int    `json:"arity" yaml:"arity"`
	Domain string `json:"domain" yaml:"domain"`
}

func newCommandsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands of the protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []commandRow
			for _, info := range wire.Commands() {
				rows = append(rows, commandRow{
					Code:   uint8(info.Code),
					Name:   info.Name,
					Arity:  info.Arity,
					Domain: string(info.Domain),
				})
			}
			a.print(cmd, rows)
			return nil
		},
	}
}
