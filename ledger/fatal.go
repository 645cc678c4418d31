// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/pkg/errors"

// fatalError marks a failure the node cannot safely continue from, such
// as a torn commit. Halting beats diverging: a node that silently rolls
// back a block the rest of the network committed is worse than a dead one.
type fatalError struct {
	cause error
}

// Fatal wraps an error as fatal.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{cause: err}
}

// Fatalf creates a fatal error with a formatted message.
func Fatalf(format string, args ...interface{}) error {
	return &fatalError{cause: errors.Errorf(format, args...)}
}

func (e *fatalError) Error() string {
	return "fatal: " + e.cause.Error()
}

func (e *fatalError) Unwrap() error {
	return e.cause
}

// IsFatal reports whether the error requires the node to halt.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
