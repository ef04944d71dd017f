package txerrors

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const Codespace = "saitx"

var (
	ErrConnection             = errorsmod.Register(Codespace, 2, "chain connection error")
	ErrAccountNotFound        = errorsmod.Register(Codespace, 3, "account not found")
	ErrSimulation             = errorsmod.Register(Codespace, 4, "simulation failed")
	ErrEncoding               = errorsmod.Register(Codespace, 5, "encoding error")
	ErrUnsupportedMessageType = errorsmod.Register(Codespace, 6, "unsupported message type")
	ErrKeyNotFound            = errorsmod.Register(Codespace, 7, "key not found")
	ErrSchemeMismatch         = errorsmod.Register(Codespace, 8, "sign scheme mismatch")
	ErrAccountMismatch        = errorsmod.Register(Codespace, 9, "signer account mismatch")
	ErrInvalidSignature       = errorsmod.Register(Codespace, 10, "invalid signature")
	ErrBroadcast              = errorsmod.Register(Codespace, 11, "transaction rejected by mempool")
	ErrResultNotFound         = errorsmod.Register(Codespace, 12, "transaction result not found")
	ErrInvalidRequest         = errorsmod.Register(Codespace, 13, "invalid request")
	ErrConfig                 = errorsmod.Register(Codespace, 14, "invalid configuration")
	ErrOutcomeUnknown         = errorsmod.Register(Codespace, 15, "broadcast outcome unknown")
)

// Stage tells a caller how far a transaction got before an error stopped it.
type Stage string

const (
	// StageNotSent means nothing reached the chain: building, signing or encoding failed.
	StageNotSent Stage = "not_sent"
	// StageRejected means the transaction was submitted and the mempool refused it.
	StageRejected Stage = "rejected"
	// StageAccepted means the mempool accepted the transaction. Execution is still unknown.
	StageAccepted Stage = "accepted"
	// StageExecuted means the transaction was included and succeeded.
	StageExecuted Stage = "executed"
	// StageFailedOnChain means the transaction was included but its execution failed.
	StageFailedOnChain Stage = "failed_on_chain"
	// StageUnknown means the submission outcome is ambiguous (e.g. the connection dropped mid-broadcast).
	StageUnknown Stage = "unknown"
)

// StageOf classifies a pipeline error. A nil error is StageAccepted.
func StageOf(err error) Stage {
	switch {
	case err == nil:
		return StageAccepted
	case errors.Is(err, ErrBroadcast):
		return StageRejected
	case errors.Is(err, ErrResultNotFound), errors.Is(err, ErrOutcomeUnknown):
		return StageUnknown
	default:
		return StageNotSent
	}
}

// IsEncoding reports whether err is an encoding failure, including unsupported message variants.
func IsEncoding(err error) bool {
	return errors.Is(err, ErrEncoding) || errors.Is(err, ErrUnsupportedMessageType)
}
