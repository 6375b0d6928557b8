package script

import (
	"bufio"
	"io"

	"github.com/blr246/adbs-repcrec/internal/coordinator"
)

// Runner drives a Coordinator from a stream of parsed Commands,
// collecting dump() output as it goes.
type Runner struct {
	coord *coordinator.Coordinator
	dumps []string
}

// NewRunner wraps coord.
func NewRunner(coord *coordinator.Coordinator) *Runner {
	return &Runner{coord: coord}
}

// Run reads newline-delimited command lines from r and applies each
// parsed Command in order, stopping at the first InputError.
func (rn *Runner) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmds, err := ParseLine(scanner.Text())
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			if err := rn.Apply(cmd); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// Apply dispatches one parsed Command to the coordinator.
func (rn *Runner) Apply(cmd Command) error {
	switch cmd.Kind {
	case Begin:
		return rn.coord.Begin(cmd.Tx)
	case BeginRO:
		return rn.coord.BeginRO(cmd.Tx)
	case Read:
		return rn.coord.Read(cmd.Tx, cmd.Variable)
	case Write:
		return rn.coord.Write(cmd.Tx, cmd.Variable, cmd.Value)
	case End:
		return rn.coord.End(cmd.Tx)
	case Fail:
		return rn.coord.Fail(cmd.Site)
	case Recover:
		return rn.coord.Recover(cmd.Site)
	case Dump:
		rn.dump(cmd)
		return nil
	}
	return nil
}

func (rn *Runner) dump(cmd Command) {
	switch {
	case !cmd.HasArg:
		rn.dumps = append(rn.dumps, rn.coord.DumpAll()...)
	case cmd.Variable != 0:
		rn.dumps = append(rn.dumps, rn.coord.DumpVariable(cmd.Variable)...)
	default:
		rn.dumps = append(rn.dumps, rn.coord.DumpSite(cmd.Site)...)
	}
}

// Dumps returns every line emitted by dump() commands seen so far.
func (rn *Runner) Dumps() []string {
	out := make([]string, len(rn.dumps))
	copy(out, rn.dumps)
	return out
}

// CommitAbortLog forwards the coordinator's commit/abort log.
func (rn *Runner) CommitAbortLog() []coordinator.LogEntry {
	return rn.coord.CommitAbortLog()
}
