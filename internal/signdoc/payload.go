package signdoc

import (
	errorsmod "cosmossdk.io/errors"

	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	xauthsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeAmino  Mode = "amino"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeAmino:
		return ModeAmino, nil
	}
	return "", errorsmod.Wrapf(txerrors.ErrInvalidRequest, "unknown sign mode %q", s)
}

func (m Mode) SignMode() signing.SignMode {
	if m == ModeAmino {
		return signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON
	}
	return signing.SignMode_SIGN_MODE_DIRECT
}

// Payload is what a signer signs. DirectPayload and AminoPayload are the only implementations
// and a signature over one is never valid for the other.
type Payload interface {
	Mode() Mode
	SignBytes() ([]byte, error)
	SignerData() xauthsigning.SignerData

	isPayload()
}

// DirectPayload carries the protobuf body and auth info. The signed bytes are the SignDoc over them.
type DirectPayload struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64

	// Sequence and PubKey are also inside AuthInfoBytes.
	Sequence      uint64
	SignerAddress string
	PubKey        cryptotypes.PubKey
}

func (DirectPayload) isPayload() {}

func (p DirectPayload) Mode() Mode { return ModeDirect }

func (p DirectPayload) SignBytes() ([]byte, error) {
	signDoc := &tx.SignDoc{
		BodyBytes:     p.BodyBytes,
		AuthInfoBytes: p.AuthInfoBytes,
		ChainId:       p.ChainID,
		AccountNumber: p.AccountNumber,
	}
	bz, err := signDoc.Marshal()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}
	return bz, nil
}

func (p DirectPayload) SignerData() xauthsigning.SignerData {
	return xauthsigning.SignerData{
		Address:       p.SignerAddress,
		ChainID:       p.ChainID,
		AccountNumber: p.AccountNumber,
		Sequence:      p.Sequence,
		PubKey:        p.PubKey,
	}
}

// AuthInfo decodes the embedded auth info.
func (p DirectPayload) AuthInfo() (*tx.AuthInfo, error) {
	var authInfo tx.AuthInfo
	if err := authInfo.Unmarshal(p.AuthInfoBytes); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "auth info: %s", err)
	}
	return &authInfo, nil
}

// AminoPayload carries the legacy amino JSON sign document.
type AminoPayload struct {
	Document      []byte
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
	SignerAddress string
	PubKey        cryptotypes.PubKey
}

func (AminoPayload) isPayload() {}

func (p AminoPayload) Mode() Mode { return ModeAmino }

// SignBytes is the document with keys in canonical (sorted) order.
func (p AminoPayload) SignBytes() ([]byte, error) {
	bz, err := types.SortJSON(p.Document)
	if err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "amino document: %s", err)
	}
	return bz, nil
}

func (p AminoPayload) SignerData() xauthsigning.SignerData {
	return xauthsigning.SignerData{
		Address:       p.SignerAddress,
		ChainID:       p.ChainID,
		AccountNumber: p.AccountNumber,
		Sequence:      p.Sequence,
		PubKey:        p.PubKey,
	}
}
