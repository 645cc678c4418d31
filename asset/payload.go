// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/platform"
)

// OpKind tags the operations of the payload union.
type OpKind uint8

const (
	// OpDefine defines a new asset type.
	OpDefine OpKind = 1
	// OpIssue issues units of an existing asset.
	OpIssue OpKind = 2
	// OpTransfer spends inputs into outputs.
	OpTransfer OpKind = 3
)

// Op is one operation of an asset envelope.
type Op interface {
	Kind() OpKind
}

// DefineAsset defines a new asset type. The issuer key must belong to the
// envelope origin.
type DefineAsset struct {
	Issuer platform.PubKey
	Salt   platform.Bytes32
	Cap    uint64
	Flags  Flags
	Memo   []byte
}

// Kind implements Op.
func (DefineAsset) Kind() OpKind { return OpDefine }

// ID derives the asset id the definition creates.
func (op *DefineAsset) ID() ID {
	return NewID(op.Issuer, op.Salt)
}

// IssueAsset mints outputs of an existing asset. Seq orders issuances and
// blocks replay.
type IssueAsset struct {
	Asset   ID
	Seq     uint64
	Outputs []Output
}

// Kind implements Op.
func (IssueAsset) Kind() OpKind { return OpIssue }

// TransferAsset spends inputs into outputs. Proof carries the
// conservation proof when any record is confidential.
type TransferAsset struct {
	Inputs  []Input
	Outputs []Output
	Proof   []byte
}

// Kind implements Op.
func (TransferAsset) Kind() OpKind { return OpTransfer }

// Input references one unspent output. The declared record must match the
// stored one exactly; declaring it makes owner signatures and conservation
// checkable without state.
type Input struct {
	UTXO     platform.Bytes32
	Declared UTXO
	// Sigs are Schnorr signatures over the envelope signing hash. A single
	// slot for a plain owner; one slot per policy key for a policy output,
	// empty slots for keys that did not sign.
	Sigs [][]byte
}

// Output is one output to create.
type Output struct {
	Asset     ID
	Owner     platform.PubKey
	Amount    Record
	Policy    *Policy `rlp:"nil"`
	NotBefore uint64
	NotAfter  uint64
}

// utxo converts the output into its stored form.
func (o *Output) utxo() UTXO {
	return UTXO{
		Asset:     o.Asset,
		Owner:     o.Owner,
		Amount:    o.Amount,
		Policy:    o.Policy,
		NotBefore: o.NotBefore,
		NotAfter:  o.NotAfter,
	}
}

func (o *Output) wellFormed() error {
	if o.Owner.IsZero() {
		return errors.New("zero owner")
	}
	if err := o.Amount.wellFormed(); err != nil {
		return err
	}
	if o.Policy != nil {
		if err := o.Policy.wellFormed(); err != nil {
			return err
		}
	}
	if o.NotAfter != 0 && o.NotAfter < o.NotBefore {
		return errors.New("empty validity window")
	}
	return nil
}

// SpendHash is the message input owners sign. It covers the envelope
// fields and the ops with the spend signature slots stripped, since the
// signatures cannot cover themselves. The envelope's own signature then
// covers everything, slots included.
func SpendHash(chainTag byte, nonce, fee uint64, ops []Op) (platform.Bytes32, error) {
	stripped := make([]Op, len(ops))
	for i, op := range ops {
		if transfer, ok := op.(*TransferAsset); ok {
			bare := &TransferAsset{
				Inputs:  make([]Input, len(transfer.Inputs)),
				Outputs: transfer.Outputs,
				Proof:   transfer.Proof,
			}
			for j, in := range transfer.Inputs {
				in.Sigs = nil
				bare.Inputs[j] = in
			}
			stripped[i] = bare
		} else {
			stripped[i] = op
		}
	}
	payload, err := EncodePayload(stripped)
	if err != nil {
		return platform.Bytes32{}, err
	}
	return platform.Blake2b(
		[]byte("platform:asset:spend"),
		[]byte{chainTag},
		uint64be(nonce),
		uint64be(fee),
		payload,
	), nil
}

func uint64be(v uint64) []byte {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = byte(v >> (56 - 8*i))
	}
	return buf
}

// opEnvelope is the wire form of one op.
type opEnvelope struct {
	Kind OpKind
	Body rlp.RawValue
}

// EncodePayload encodes ops as an asset envelope payload.
func EncodePayload(ops []Op) ([]byte, error) {
	envelopes := make([]opEnvelope, len(ops))
	for i, op := range ops {
		body, err := rlp.EncodeToBytes(op)
		if err != nil {
			return nil, err
		}
		envelopes[i] = opEnvelope{Kind: op.Kind(), Body: body}
	}
	return rlp.EncodeToBytes(envelopes)
}

// MustEncodePayload encodes ops, panicking on error.
func MustEncodePayload(ops ...Op) []byte {
	data, err := EncodePayload(ops)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodePayload decodes an asset envelope payload.
func DecodePayload(payload []byte) ([]Op, error) {
	var envelopes []opEnvelope
	if err := rlp.DecodeBytes(payload, &envelopes); err != nil {
		return nil, errors.WithMessage(err, "decode ops")
	}
	if len(envelopes) == 0 {
		return nil, errors.New("empty op list")
	}

	ops := make([]Op, len(envelopes))
	for i, e := range envelopes {
		var (
			op  Op
			err error
		)
		switch e.Kind {
		case OpDefine:
			var d DefineAsset
			err = rlp.DecodeBytes(e.Body, &d)
			op = &d
		case OpIssue:
			var iss IssueAsset
			err = rlp.DecodeBytes(e.Body, &iss)
			op = &iss
		case OpTransfer:
			var tr TransferAsset
			err = rlp.DecodeBytes(e.Body, &tr)
			op = &tr
		default:
			return nil, errors.Errorf("unknown op kind %d", e.Kind)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "decode op %d", i)
		}
		ops[i] = op
	}
	return ops, nil
}
