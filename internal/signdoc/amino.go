package signdoc

import (
	"bytes"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	jsoniter "github.com/json-iterator/go"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	xauthsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"

	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/msgs"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

// AminoDocument is a parsed legacy amino sign document.
type AminoDocument struct {
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
	TimeoutHeight uint64
	Memo          string
	Fee           fee.Fee
	Messages      []msgs.Message
}

type aminoCoin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

type aminoFee struct {
	Amount  []aminoCoin `json:"amount"`
	Gas     string      `json:"gas"`
	Granter string      `json:"granter"`
	Payer   string      `json:"payer"`
}

type aminoSignDoc struct {
	AccountNumber string                `json:"account_number"`
	ChainID       string                `json:"chain_id"`
	Fee           aminoFee              `json:"fee"`
	Memo          string                `json:"memo"`
	Msgs          []jsoniter.RawMessage `json:"msgs"`
	Sequence      string                `json:"sequence"`
	TimeoutHeight string                `json:"timeout_height"`
}

// ParseAminoDocument reads a legacy amino sign document. Messages outside the supported set are rejected.
func ParseAminoDocument(cdc *codec.LegacyAmino, doc []byte) (*AminoDocument, error) {
	var raw aminoSignDoc
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(doc, &raw); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "amino document: %s", err)
	}
	if raw.ChainID == "" {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "amino document: empty chain_id")
	}

	parsed := &AminoDocument{ChainID: raw.ChainID, Memo: raw.Memo}

	var err error
	if parsed.AccountNumber, err = parseUint("account_number", raw.AccountNumber, false); err != nil {
		return nil, err
	}
	if parsed.Sequence, err = parseUint("sequence", raw.Sequence, false); err != nil {
		return nil, err
	}
	if parsed.TimeoutHeight, err = parseUint("timeout_height", raw.TimeoutHeight, true); err != nil {
		return nil, err
	}
	if parsed.Fee.GasLimit, err = parseUint("fee.gas", raw.Fee.Gas, false); err != nil {
		return nil, err
	}
	parsed.Fee.Granter = raw.Fee.Granter
	parsed.Fee.Payer = raw.Fee.Payer

	for _, c := range raw.Fee.Amount {
		amount, ok := math.NewIntFromString(c.Amount)
		if !ok {
			return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "fee amount %q", c.Amount)
		}
		parsed.Fee.Amount = append(parsed.Fee.Amount, types.Coin{Denom: c.Denom, Amount: amount})
	}
	if err := parsed.Fee.Amount.Validate(); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "fee amount: %s", err)
	}

	if len(raw.Msgs) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "amino document: no messages")
	}
	for i, rawMsg := range raw.Msgs {
		var msg types.Msg
		if err := cdc.UnmarshalJSON(rawMsg, &msg); err != nil {
			return nil, errorsmod.Wrapf(txerrors.ErrUnsupportedMessageType, "message %d: %s", i, err)
		}
		m, err := msgs.FromSDK(msg)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "message %d", i)
		}
		parsed.Messages = append(parsed.Messages, m)
	}

	return parsed, nil
}

// RebuildAmino reconstructs the transaction an amino document describes, signed by pubKey with signature.
// The auth info (pubkey, sequence, gas, fee) is derived from the document.
// The rebuilt transaction must produce exactly the document's canonical sign bytes.
func RebuildAmino(txConfig client.TxConfig, cdc *codec.LegacyAmino, doc []byte, pubKey cryptotypes.PubKey, signature []byte) (client.TxBuilder, *AminoDocument, error) {
	if pubKey == nil {
		return nil, nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "amino transaction needs a public key")
	}

	parsed, err := ParseAminoDocument(cdc, doc)
	if err != nil {
		return nil, nil, err
	}

	txBuilder, err := newTxBuilder(txConfig, content{
		messages:      parsed.Messages,
		memo:          parsed.Memo,
		fee:           parsed.Fee,
		timeoutHeight: parsed.TimeoutHeight,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := setSignature(txBuilder, ModeAmino, pubKey, parsed.Sequence, signature); err != nil {
		return nil, nil, err
	}

	signerData := xauthsigning.SignerData{
		Address:       types.AccAddress(pubKey.Address()).String(),
		ChainID:       parsed.ChainID,
		AccountNumber: parsed.AccountNumber,
		Sequence:      parsed.Sequence,
		PubKey:        pubKey,
	}
	rebuilt, err := txConfig.SignModeHandler().GetSignBytes(signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON, signerData, txBuilder.GetTx())
	if err != nil {
		return nil, nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	expected, err := types.SortJSON(doc)
	if err != nil {
		return nil, nil, errorsmod.Wrapf(txerrors.ErrEncoding, "amino document: %s", err)
	}
	if !bytes.Equal(rebuilt, expected) {
		return nil, nil, errorsmod.Wrap(txerrors.ErrEncoding, "amino document does not match the rebuilt transaction")
	}

	return txBuilder, parsed, nil
}

func parseUint(field, value string, optional bool) (uint64, error) {
	if value == "" {
		if optional {
			return 0, nil
		}
		return 0, errorsmod.Wrapf(txerrors.ErrEncoding, "amino document: missing %s", field)
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errorsmod.Wrapf(txerrors.ErrEncoding, "amino document: %s: %s", field, err)
	}
	return n, nil
}
