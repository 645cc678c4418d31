// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

// Code classifies the outcome of admitting or applying an envelope. Codes
// below 32 are admission failures: the envelope never reached module state.
// Codes from 32 are application failures: the envelope was delivered inside
// a block and all its effects were reverted.
type Code uint32

const (
	CodeOK Code = 0

	// admission
	CodeUnknownModule    Code = 1
	CodeOversize         Code = 2
	CodeMalformed        Code = 3
	CodeBadSignature     Code = 4
	CodeChainTagMismatch Code = 5
	CodeStaleNonce       Code = 6
	CodeInsufficientFee  Code = 7
	CodeDuplicateTx      Code = 8
	CodePoolFull         Code = 9
	CodeBlockFull        Code = 10

	// application
	CodeUnknownInput        Code = 32
	CodeDoubleSpend         Code = 33
	CodeOwnerMismatch       Code = 34
	CodePolicyViolation     Code = 35
	CodeProofInvalid        Code = 36
	CodeAssetExists         Code = 37
	CodeUnknownAsset        Code = 38
	CodeStaleIssuance       Code = 39
	CodeCapExceeded         Code = 40
	CodeNotTransferable     Code = 41
	CodeAmountMismatch      Code = 42
	CodeWindowViolation     Code = 43
	CodeNonceGap            Code = 44
	CodeInsufficientBalance Code = 45
	CodeReverted            Code = 46
	CodeOutOfGas            Code = 47
	CodeCreateCollision     Code = 48

	CodeInternal Code = 63
)

// OK reports whether the code is the success code.
func (c Code) OK() bool { return c == CodeOK }

// Class buckets the code for metric labels.
func (c Code) Class() string {
	switch {
	case c == CodeOK:
		return "ok"
	case c < 32:
		return "admission"
	case c == CodeInternal:
		return "internal"
	default:
		return "application"
	}
}

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeUnknownModule:
		return "unknown module"
	case CodeOversize:
		return "oversize"
	case CodeMalformed:
		return "malformed"
	case CodeBadSignature:
		return "bad signature"
	case CodeChainTagMismatch:
		return "chain tag mismatch"
	case CodeStaleNonce:
		return "stale nonce"
	case CodeInsufficientFee:
		return "insufficient fee"
	case CodeDuplicateTx:
		return "duplicate tx"
	case CodePoolFull:
		return "pool full"
	case CodeBlockFull:
		return "block full"
	case CodeUnknownInput:
		return "unknown input"
	case CodeDoubleSpend:
		return "double spend"
	case CodeOwnerMismatch:
		return "owner mismatch"
	case CodePolicyViolation:
		return "policy violation"
	case CodeProofInvalid:
		return "proof invalid"
	case CodeAssetExists:
		return "asset exists"
	case CodeUnknownAsset:
		return "unknown asset"
	case CodeStaleIssuance:
		return "stale issuance"
	case CodeCapExceeded:
		return "cap exceeded"
	case CodeNotTransferable:
		return "not transferable"
	case CodeAmountMismatch:
		return "amount mismatch"
	case CodeWindowViolation:
		return "window violation"
	case CodeNonceGap:
		return "nonce gap"
	case CodeInsufficientBalance:
		return "insufficient balance"
	case CodeReverted:
		return "reverted"
	case CodeOutOfGas:
		return "out of gas"
	case CodeCreateCollision:
		return "create collision"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}
