// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package module

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/tx"
)

// Reason is a classified envelope failure. Modules return it from Check,
// Validate and Apply; everything else crossing the module boundary counts
// as internal.
type Reason struct {
	code tx.Code
	msg  string
}

// NewReason creates a Reason with the given code.
func NewReason(code tx.Code, msg string) *Reason {
	return &Reason{code: code, msg: msg}
}

// Reasonf creates a Reason with a formatted message.
func Reasonf(code tx.Code, format string, args ...interface{}) *Reason {
	return &Reason{code: code, msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (r *Reason) Error() string {
	if r.msg == "" {
		return r.code.String()
	}
	return r.code.String() + ": " + r.msg
}

// Code returns the result code.
func (r *Reason) Code() tx.Code {
	return r.code
}

// CodeOf extracts the result code of an error. A nil error is CodeOK; an
// error that is not a Reason is CodeInternal.
func CodeOf(err error) tx.Code {
	if err == nil {
		return tx.CodeOK
	}
	var reason *Reason
	if errors.As(err, &reason) {
		return reason.Code()
	}
	return tx.CodeInternal
}
