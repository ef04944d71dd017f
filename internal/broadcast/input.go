package broadcast

import (
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"

	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
)

// Input is one of RawTx, Parts, DirectSigned or AminoSigned.
type Input interface {
	isInput()
}

// RawTx is a complete, encoded TxRaw.
type RawTx struct {
	Bytes []byte
}

// Parts are already signed pieces of a transaction, e.g. from a multi-signer flow.
type Parts struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// DirectSigned is a direct payload and the single signature over it.
type DirectSigned struct {
	Payload   signdoc.DirectPayload
	Signature []byte
}

// AminoSigned is an amino document, the single signature over it and the signer's key.
// The auth info is derived from the document.
type AminoSigned struct {
	Document  []byte
	Signature []byte
	PubKey    cryptotypes.PubKey
}

func (RawTx) isInput()        {}
func (Parts) isInput()        {}
func (DirectSigned) isInput() {}
func (AminoSigned) isInput()  {}
