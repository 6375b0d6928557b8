package script

import (
	"strings"

	"github.com/pingcap/errors"

	"github.com/blr246/adbs-repcrec/internal/coordinator"
)

// Assertion is one assertCommitted(Tk)/assertAborted(Tk) expectation
// from a test file's debug section.
type Assertion struct {
	Tx       int
	Expected coordinator.EndStatus
}

var assertPattern = map[string]coordinator.EndStatus{
	"assertCommitted": coordinator.StatusCommitted,
	"assertAborted":   coordinator.StatusAborted,
}

// ParseAssertions parses the debug section of a test file: one
// assertCommitted(Tk) or assertAborted(Tk) per line.
func ParseAssertions(text string) ([]Assertion, error) {
	var out []Assertion
	for _, line := range strings.Split(text, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := commandPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, errors.Errorf("script: malformed assertion %q", line)
		}
		status, ok := assertPattern[m[1]]
		if !ok {
			return nil, errors.Errorf("script: unknown assertion %q", m[1])
		}
		tx, err := parseTxArg(m[2])
		if err != nil {
			return nil, err
		}
		out = append(out, Assertion{Tx: tx, Expected: status})
	}
	return out, nil
}

// SplitTestFile splits a test file's contents on a line containing only
// "---" into its command section and its debug/assertion section,
// matching commands.py's TestFile layout.
func SplitTestFile(contents string) (commands, assertions string) {
	lines := strings.Split(contents, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return contents, ""
}

// Failure describes one assertion that did not hold.
type Failure struct {
	Tx       int
	Expected coordinator.EndStatus
	Actual   coordinator.EndStatus
	Found    bool
}

// Check evaluates every assertion against log, returning one Failure
// per assertion that does not hold (including assertions about
// transactions absent from the log entirely).
func Check(assertions []Assertion, log []coordinator.LogEntry) []Failure {
	byTx := make(map[int]coordinator.EndStatus, len(log))
	for _, e := range log {
		byTx[e.TxID] = e.Status
	}

	var failures []Failure
	for _, a := range assertions {
		actual, found := byTx[a.Tx]
		if !found || actual != a.Expected {
			failures = append(failures, Failure{Tx: a.Tx, Expected: a.Expected, Actual: actual, Found: found})
		}
	}
	return failures
}
