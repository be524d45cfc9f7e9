package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pior/kvclient/wire"
)

type argKind int

const (
	argBytes argKind = iota
	argInt
	argFloat
)

// numericArgs lists the argument positions the server reads as numbers.
// Every other argument is sent as bytes unless it carries a prefix.
var numericArgs = map[wire.CmdType]map[int]argKind{
	wire.CmdExpire: {1: argInt},
	wire.CmdZAdd:   {1: argFloat},
	wire.CmdZQuery: {1: argFloat, 3: argInt, 4: argInt},
}

// parseRequest builds a request from a command name and its textual
// arguments.
//
// An argument prefixed with "i:" is sent as an Int, "f:" as a Float and "s:"
// as Bytes, whatever its position. Unprefixed arguments are typed by position.
func parseRequest(name string, raw []string) (*wire.Request, error) {
	info, ok := wire.LookupCommand(name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	if info.Code == wire.CmdShutdown {
		return nil, fmt.Errorf("use the shutdown subcommand to stop a server")
	}
	if len(raw) != info.Arity {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", info.Name, info.Arity, len(raw))
	}

	args := make([]wire.Value, len(raw))
	for i, s := range raw {
		v, err := parseArg(s, numericArgs[info.Code][i])
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", info.Name, i+1, err)
		}
		args[i] = v
	}

	req := wire.NewRequest(info.Code, args...)
	return req, req.Validate()
}

func parseArg(s string, kind argKind) (wire.Value, error) {
	switch {
	case strings.HasPrefix(s, "i:"):
		s, kind = s[2:], argInt
	case strings.HasPrefix(s, "f:"):
		s, kind = s[2:], argFloat
	case strings.HasPrefix(s, "s:"):
		s, kind = s[2:], argBytes
	}

	switch kind {
	case argInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return wire.Value{}, fmt.Errorf("invalid integer %q", s)
		}
		return wire.Int(i), nil
	case argFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return wire.Value{}, fmt.Errorf("invalid float %q", s)
		}
		return wire.Float(f), nil
	default:
		return wire.String(s), nil
	}
}

// parseLine splits a pipeline line into a request. Fields are separated by
// white space; a field may be double-quoted to hold spaces.
func parseLine(line string) (*wire.Request, error) {
	fields, err := splitFields(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseRequest(fields[0], fields[1:])
}

func splitFields(line string) ([]string, error) {
	var fields []string
	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return fields, nil
		}

		if line[0] != '"' {
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				end = len(line)
			}
			fields = append(fields, line[:end])
			line = line[end:]
			continue
		}

		quoted, err := strconv.QuotedPrefix(line)
		if err != nil {
			return nil, fmt.Errorf("unterminated quoted field: %s", line)
		}
		field, _ := strconv.Unquote(quoted)
		fields = append(fields, field)
		line = line[len(quoted):]
	}
}
