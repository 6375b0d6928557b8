// Package script is a thin, standalone layer around the coordinator: a
// regex-based command-stream parser grounded in commands.py's
// parse_commands, a Runner that feeds parsed commands to a Coordinator,
// and an assertion harness for test-file-style scripts. spec.md treats
// the textual command stream as an external collaborator specified only
// by the operation records it produces; this package is that producer,
// kept deliberately separate from internal/coordinator.
package script

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

// Kind names which command a Command line represents.
type Kind string

const (
	Begin   Kind = "begin"
	BeginRO Kind = "beginRO"
	Read    Kind = "R"
	Write   Kind = "W"
	End     Kind = "end"
	Fail    Kind = "fail"
	Recover Kind = "recover"
	Dump    Kind = "dump"
)

// Command is one parsed operation record.
type Command struct {
	Kind     Kind
	Tx       int // begin, beginRO, R, W, end
	Variable int // R, W, dump(xi)
	Value    int // W
	Site     int // fail, recover, dump(s)
	HasArg   bool
}

var commandPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9]*)\(([^)]*)\)`)

// ParseLine splits line on ';', strips a trailing "//" comment, and
// parses each resulting command. A blank or comment-only line yields no
// commands.
func ParseLine(line string) ([]Command, error) {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	var cmds []Command
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cmd, err := parseOne(part)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func parseOne(text string) (Command, error) {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return Command{}, errors.Errorf("script: malformed command %q", text)
	}
	name := m[1]
	args := splitArgs(m[2])

	switch Kind(name) {
	case Begin:
		tx, err := parseTx(args, name)
		return Command{Kind: Begin, Tx: tx}, err
	case BeginRO:
		tx, err := parseTx(args, name)
		return Command{Kind: BeginRO, Tx: tx}, err
	case End:
		tx, err := parseTx(args, name)
		return Command{Kind: End, Tx: tx}, err
	case Read:
		if len(args) != 2 {
			return Command{}, errors.Errorf("script: R needs 2 args, got %v", args)
		}
		tx, err := parseTxArg(args[0])
		if err != nil {
			return Command{}, err
		}
		v, err := parseVarArg(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Read, Tx: tx, Variable: v}, nil
	case Write:
		if len(args) != 3 {
			return Command{}, errors.Errorf("script: W needs 3 args, got %v", args)
		}
		tx, err := parseTxArg(args[0])
		if err != nil {
			return Command{}, err
		}
		v, err := parseVarArg(args[1])
		if err != nil {
			return Command{}, err
		}
		value, err := strconv.Atoi(strings.TrimSpace(args[2]))
		if err != nil {
			return Command{}, errors.Errorf("script: bad write value %q", args[2])
		}
		return Command{Kind: Write, Tx: tx, Variable: v, Value: value}, nil
	case Fail:
		if len(args) != 1 {
			return Command{}, errors.Errorf("script: fail needs 1 arg, got %v", args)
		}
		s, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return Command{}, errors.Errorf("script: bad site id %q", args[0])
		}
		return Command{Kind: Fail, Site: s}, nil
	case Recover:
		if len(args) != 1 {
			return Command{}, errors.Errorf("script: recover needs 1 arg, got %v", args)
		}
		s, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return Command{}, errors.Errorf("script: bad site id %q", args[0])
		}
		return Command{Kind: Recover, Site: s}, nil
	case Dump:
		if len(args) == 0 {
			return Command{Kind: Dump}, nil
		}
		if len(args) != 1 {
			return Command{}, errors.Errorf("script: dump takes at most 1 arg, got %v", args)
		}
		arg := strings.TrimSpace(args[0])
		if strings.HasPrefix(arg, "x") {
			v, err := parseVarArg(arg)
			if err != nil {
				return Command{}, err
			}
			return Command{Kind: Dump, Variable: v, HasArg: true}, nil
		}
		s, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, errors.Errorf("script: bad dump argument %q", arg)
		}
		return Command{Kind: Dump, Site: s, HasArg: true}, nil
	default:
		return Command{}, errors.Errorf("script: unknown command %q", name)
	}
}

func splitArgs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseTx(args []string, cmd string) (int, error) {
	if len(args) != 1 {
		return 0, errors.Errorf("script: %s needs 1 arg, got %v", cmd, args)
	}
	return parseTxArg(args[0])
}

func parseTxArg(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "T") {
		return 0, errors.Errorf("script: bad transaction id %q", arg)
	}
	return strconv.Atoi(arg[1:])
}

func parseVarArg(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "x") {
		return 0, errors.Errorf("script: bad variable id %q", arg)
	}
	return strconv.Atoi(arg[1:])
}
