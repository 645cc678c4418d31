// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package zk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/zk"
)

func opening(t *testing.T, amount uint64) zk.Opening {
	blinding, err := zk.RandomBlinding()
	require.NoError(t, err)
	return zk.Opening{Amount: amount, Blinding: blinding}
}

func TestBalancedTransferVerifies(t *testing.T) {
	verifier := zk.NewPedersenVerifier()

	tests := []struct {
		name    string
		inputs  []uint64
		outputs []uint64
		fee     uint64
	}{
		{"one to one", []uint64{100}, []uint64{100}, 0},
		{"split", []uint64{100}, []uint64{60, 40}, 0},
		{"merge with fee", []uint64{70, 30}, []uint64{95}, 5},
		{"all to fee", []uint64{7}, nil, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inputs, outputs []zk.Opening
			for _, v := range tt.inputs {
				inputs = append(inputs, opening(t, v))
			}
			for _, v := range tt.outputs {
				outputs = append(outputs, opening(t, v))
			}
			set, err := zk.ProveTransfer(inputs, outputs, tt.fee)
			require.NoError(t, err)
			assert.NoError(t, verifier.VerifyTransfer(set))
		})
	}
}

func TestUnbalancedOpeningsRejectedAtProve(t *testing.T) {
	_, err := zk.ProveTransfer(
		[]zk.Opening{opening(t, 100)},
		[]zk.Opening{opening(t, 100)},
		1,
	)
	assert.Error(t, err)
}

func TestTamperedSetFails(t *testing.T) {
	verifier := zk.NewPedersenVerifier()

	set, err := zk.ProveTransfer(
		[]zk.Opening{opening(t, 100)},
		[]zk.Opening{opening(t, 90)},
		10,
	)
	require.NoError(t, err)
	require.NoError(t, verifier.VerifyTransfer(set))

	// swap an output for a commitment to a different amount
	tampered := *set
	tampered.Outputs = []zk.Commitment{zk.ClearCommitment(90)}
	assert.ErrorIs(t, verifier.VerifyTransfer(&tampered), zk.ErrProofInvalid)

	// change the fee
	tampered = *set
	tampered.Fee = 9
	assert.ErrorIs(t, verifier.VerifyTransfer(&tampered), zk.ErrProofInvalid)

	// truncate the proof
	tampered = *set
	tampered.Proof = set.Proof[:len(set.Proof)-1]
	assert.ErrorIs(t, verifier.VerifyTransfer(&tampered), zk.ErrProofInvalid)

	// flip a proof byte
	tampered = *set
	tampered.Proof = append([]byte(nil), set.Proof...)
	tampered.Proof[len(tampered.Proof)-1] ^= 1
	assert.ErrorIs(t, verifier.VerifyTransfer(&tampered), zk.ErrProofInvalid)
}

func TestClearCommitmentMixes(t *testing.T) {
	// a clear record enters the set as a zero-blinding commitment
	confidential := opening(t, 60)
	set, err := zk.ProveTransfer(
		[]zk.Opening{{Amount: 40}, confidential},
		[]zk.Opening{opening(t, 100)},
		0,
	)
	require.NoError(t, err)
	assert.Equal(t, zk.ClearCommitment(40), set.Inputs[0])
	assert.NoError(t, zk.NewPedersenVerifier().VerifyTransfer(set))
}

func TestVerifyIsPure(t *testing.T) {
	verifier := zk.NewPedersenVerifier()
	set, err := zk.ProveTransfer(
		[]zk.Opening{opening(t, 5)},
		[]zk.Opening{opening(t, 5)},
		0,
	)
	require.NoError(t, err)

	for range 3 {
		assert.NoError(t, verifier.VerifyTransfer(set))
	}
}

func TestCommitmentCodec(t *testing.T) {
	c := zk.ClearCommitment(123)

	parsed, err := zk.BytesToCommitment(c.Bytes())
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
	_, err = parsed.Point()
	assert.NoError(t, err)

	_, err = zk.BytesToCommitment([]byte{1, 2, 3})
	assert.Error(t, err)

	var garbage zk.Commitment
	for i := range garbage {
		garbage[i] = 0xff
	}
	_, err = garbage.Point()
	assert.Error(t, err)
}

func TestNopVerifier(t *testing.T) {
	set := &zk.TransferSet{
		Inputs:  []zk.Commitment{zk.ClearCommitment(1)},
		Outputs: []zk.Commitment{zk.ClearCommitment(2)},
	}
	// shape only; conservation is not checked
	assert.NoError(t, zk.NopVerifier{}.VerifyTransfer(set))

	var garbage zk.Commitment
	for i := range garbage {
		garbage[i] = 0xff
	}
	set.Inputs = []zk.Commitment{garbage}
	assert.Error(t, zk.NopVerifier{}.VerifyTransfer(set))
}
