// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"github.com/chinyuchan/platform/tx"
)

// NopEngine is the built-in engine for dev chains and tests. It settles
// plain value transfers and reverts everything that needs bytecode
// interpretation, which a production deployment plugs in externally.
type NopEngine struct{}

// Execute implements Engine.
func (NopEngine) Execute(ctx *Context, msg *Message) (*Output, error) {
	intrinsic, err := IntrinsicGas(msg)
	if err != nil {
		return nil, err
	}

	if msg.To == nil {
		return &Output{UsedGas: msg.Gas, Reverted: true, VMErr: "contract creation unavailable"}, nil
	}
	callee, err := ctx.Host.Account(*msg.To)
	if err != nil {
		return nil, err
	}
	if len(callee.CodeHash) != 0 {
		return &Output{UsedGas: msg.Gas, Reverted: true, VMErr: "contract execution unavailable"}, nil
	}

	out := &Output{UsedGas: intrinsic}
	if !msg.Value.IsZero() {
		out.Writes = []StateWrite{
			{Kind: WriteSubBalance, Addr: ctx.Origin, Value: msg.Value},
			{Kind: WriteAddBalance, Addr: *msg.To, Value: msg.Value},
		}
		out.Logs = tx.Events{{
			Type: "evm.transfer",
			Attributes: []tx.Attribute{
				{Key: "from", Value: ctx.Origin.String()},
				{Key: "to", Value: msg.To.String()},
				{Key: "value", Value: msg.Value.Dec()},
			},
		}}
	}
	return out, nil
}
