// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package zk

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/platform"
)

// proof layout: excess point, Schnorr nonce point, Schnorr scalar.
const proofLength = CommitmentLength + CommitmentLength + fr.Bytes

// ErrProofInvalid is returned for any proof that does not verify. The
// cause is deliberately not detailed further: a prover learns nothing
// from the failure mode.
var ErrProofInvalid = errors.New("proof invalid")

var (
	// valueBase is G, the generator committed amounts multiply.
	valueBase bn254.G1Affine
	// blindBase is H, the blinding generator. Nothing-up-my-sleeve:
	// hashed to the curve from a fixed domain tag, so nobody knows its
	// discrete log relative to G.
	blindBase bn254.G1Affine
)

func init() {
	_, _, valueBase, _ = bn254.Generators()
	h, err := bn254.HashToG1([]byte("platform:pedersen:blinding"), []byte("platform:pedersen:v1"))
	if err != nil {
		panic(err)
	}
	blindBase = h
}

// PedersenVerifier verifies transfer conservation over BN254 Pedersen
// commitments. A balanced set satisfies
//
//	Σ inputs − Σ outputs − fee·G = r·H
//
// for some blinding excess r the prover knows; the proof is a Schnorr
// signature with base H demonstrating that knowledge, which rules out any
// G component (any hidden amount) in the excess.
type PedersenVerifier struct{}

// NewPedersenVerifier creates the verifier.
func NewPedersenVerifier() *PedersenVerifier {
	return &PedersenVerifier{}
}

// VerifyTransfer verifies the set.
func (v *PedersenVerifier) VerifyTransfer(set *TransferSet) error {
	if len(set.Proof) != proofLength {
		return errors.WithMessage(ErrProofInvalid, "bad proof length")
	}

	var sum bn254.G1Jac
	for _, c := range set.Inputs {
		p, err := c.Point()
		if err != nil {
			return errors.WithMessage(ErrProofInvalid, err.Error())
		}
		sum.AddMixed(&p)
	}
	for _, c := range set.Outputs {
		p, err := c.Point()
		if err != nil {
			return errors.WithMessage(ErrProofInvalid, err.Error())
		}
		var neg bn254.G1Affine
		neg.Neg(&p)
		sum.AddMixed(&neg)
	}
	if set.Fee > 0 {
		var feePoint bn254.G1Affine
		feePoint.ScalarMultiplication(&valueBase, new(big.Int).SetUint64(set.Fee))
		feePoint.Neg(&feePoint)
		sum.AddMixed(&feePoint)
	}
	var excess bn254.G1Affine
	excess.FromJacobian(&sum)

	var declared, nonce bn254.G1Affine
	if _, err := declared.SetBytes(set.Proof[:CommitmentLength]); err != nil {
		return errors.WithMessage(ErrProofInvalid, "bad excess point")
	}
	if !declared.Equal(&excess) {
		return errors.WithMessage(ErrProofInvalid, "excess mismatch")
	}
	if _, err := nonce.SetBytes(set.Proof[CommitmentLength : 2*CommitmentLength]); err != nil {
		return errors.WithMessage(ErrProofInvalid, "bad nonce point")
	}
	var s fr.Element
	s.SetBytes(set.Proof[2*CommitmentLength:])

	// s·H == R + e·excess
	e := challenge(&nonce, &excess, set.Digest())

	var lhs bn254.G1Affine
	lhs.ScalarMultiplication(&blindBase, s.BigInt(new(big.Int)))

	var rhs bn254.G1Affine
	rhs.ScalarMultiplication(&excess, e.BigInt(new(big.Int)))
	rhs.Add(&rhs, &nonce)

	if !lhs.Equal(&rhs) {
		return ErrProofInvalid
	}
	return nil
}

func challenge(nonce, excess *bn254.G1Affine, digest platform.Bytes32) fr.Element {
	nb := nonce.Bytes()
	eb := excess.Bytes()
	h := platform.Blake2b([]byte("platform:pedersen:challenge"), nb[:], eb[:], digest.Bytes())
	var e fr.Element
	e.SetBytes(h.Bytes())
	return e
}

// Opening is the secret side of a commitment.
type Opening struct {
	Amount   uint64
	Blinding fr.Element
}

// Commit commits to the opening: amount·G + blinding·H.
func Commit(o *Opening) Commitment {
	var vp, bp bn254.G1Affine
	vp.ScalarMultiplication(&valueBase, new(big.Int).SetUint64(o.Amount))
	bp.ScalarMultiplication(&blindBase, o.Blinding.BigInt(new(big.Int)))
	vp.Add(&vp, &bp)
	return Commitment(vp.Bytes())
}

// ClearCommitment commits to a clear amount with zero blinding, letting
// clear records mix into a confidential set.
func ClearCommitment(amount uint64) Commitment {
	var p bn254.G1Affine
	p.ScalarMultiplication(&valueBase, new(big.Int).SetUint64(amount))
	return Commitment(p.Bytes())
}

// RandomBlinding draws a blinding factor.
func RandomBlinding() (fr.Element, error) {
	var b fr.Element
	if _, err := b.SetRandom(); err != nil {
		return fr.Element{}, err
	}
	return b, nil
}

// ProveTransfer builds the conservation proof for a balanced set. It fails
// if the openings do not actually balance, since the resulting proof could
// never verify.
func ProveTransfer(inputs, outputs []Opening, fee uint64) (*TransferSet, error) {
	set := &TransferSet{Fee: fee}

	var inSum, outSum uint64
	var excessBlinding fr.Element
	for i := range inputs {
		set.Inputs = append(set.Inputs, Commit(&inputs[i]))
		inSum += inputs[i].Amount
		excessBlinding.Add(&excessBlinding, &inputs[i].Blinding)
	}
	for i := range outputs {
		set.Outputs = append(set.Outputs, Commit(&outputs[i]))
		outSum += outputs[i].Amount
		excessBlinding.Sub(&excessBlinding, &outputs[i].Blinding)
	}
	if inSum != outSum+fee {
		return nil, errors.New("unbalanced openings")
	}

	var excess bn254.G1Affine
	excess.ScalarMultiplication(&blindBase, excessBlinding.BigInt(new(big.Int)))

	k, err := RandomBlinding()
	if err != nil {
		return nil, err
	}
	var nonce bn254.G1Affine
	nonce.ScalarMultiplication(&blindBase, k.BigInt(new(big.Int)))

	e := challenge(&nonce, &excess, set.Digest())
	var s fr.Element
	s.Mul(&e, &excessBlinding).Add(&s, &k)

	excessBytes := excess.Bytes()
	nonceBytes := nonce.Bytes()
	scalarBytes := s.Bytes()

	proof := make([]byte, 0, proofLength)
	proof = append(proof, excessBytes[:]...)
	proof = append(proof, nonceBytes[:]...)
	proof = append(proof, scalarBytes[:]...)
	set.Proof = proof
	return set, nil
}
