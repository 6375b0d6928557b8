package coordinator

import "github.com/pingcap/errors"

// InputError reports a malformed or out-of-order command: referencing a
// transaction that does not exist, issuing a command to a blocked
// transaction, reading/writing a variable outside the configured range,
// and so on. It is the only error category operations return; abort and
// park are modeled as first-class state, not errors.
type InputError struct {
	err error
}

func (e *InputError) Error() string { return e.err.Error() }
func (e *InputError) Unwrap() error { return e.err }

func newInputError(format string, args ...interface{}) *InputError {
	return &InputError{err: errors.Errorf(format, args...)}
}
