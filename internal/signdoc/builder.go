package signdoc

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"

	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/encoding"
	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/msgs"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

type AccountReader interface {
	GetAccount(ctx context.Context, address string) (*chain.Account, error)
}

type FeeEstimator interface {
	EstimateEncoded(ctx context.Context, req chain.SimulateRequest) (*fee.Estimate, error)
}

// Request describes the transaction to build. PubKey is the compressed secp256k1 key of Sender;
// when empty the key recorded on chain is used.
type Request struct {
	Sender        string
	PubKey        []byte
	Messages      []msgs.Message
	Fee           fee.Choice
	Memo          string
	TimeoutHeight uint64
}

// Prepared is the resolved transaction shared by both payload shapes.
type Prepared struct {
	Account *chain.Account
	PubKey  cryptotypes.PubKey
	Fee     fee.Fee
	// GasUsed is the simulated gas, zero for a fixed fee.
	GasUsed uint64
}

type Builder struct {
	accounts  AccountReader
	estimator FeeEstimator
	enc       *encoding.Config
	chainID   string
	log       *zap.Logger
}

func NewBuilder(accounts AccountReader, estimator FeeEstimator, enc *encoding.Config, chainID string, log *zap.Logger) *Builder {
	return &Builder{
		accounts:  accounts,
		estimator: estimator,
		enc:       enc,
		chainID:   chainID,
		log:       log,
	}
}

func (b *Builder) ChainID() string {
	return b.chainID
}

// Build produces the payload for the given mode.
func (b *Builder) Build(ctx context.Context, req Request, mode Mode) (Payload, *Prepared, error) {
	if mode == ModeAmino {
		payload, prepared, err := b.BuildAmino(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		return *payload, prepared, nil
	}

	payload, prepared, err := b.BuildDirect(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return *payload, prepared, nil
}

func (b *Builder) BuildDirect(ctx context.Context, req Request) (*DirectPayload, *Prepared, error) {
	txBuilder, prepared, err := b.prepare(ctx, req, ModeDirect)
	if err != nil {
		return nil, nil, err
	}

	txBytes, err := b.enc.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	var raw tx.TxRaw
	if err := raw.Unmarshal(txBytes); err != nil {
		return nil, nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	return &DirectPayload{
		BodyBytes:     raw.BodyBytes,
		AuthInfoBytes: raw.AuthInfoBytes,
		ChainID:       b.chainID,
		AccountNumber: prepared.Account.AccountNumber,
		Sequence:      prepared.Account.Sequence,
		SignerAddress: req.Sender,
		PubKey:        prepared.PubKey,
	}, prepared, nil
}

func (b *Builder) BuildAmino(ctx context.Context, req Request) (*AminoPayload, *Prepared, error) {
	txBuilder, prepared, err := b.prepare(ctx, req, ModeAmino)
	if err != nil {
		return nil, nil, err
	}

	payload := &AminoPayload{
		ChainID:       b.chainID,
		AccountNumber: prepared.Account.AccountNumber,
		Sequence:      prepared.Account.Sequence,
		SignerAddress: req.Sender,
		PubKey:        prepared.PubKey,
	}

	payload.Document, err = b.enc.TxConfig.SignModeHandler().GetSignBytes(
		signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON,
		payload.SignerData(),
		txBuilder.GetTx(),
	)
	if err != nil {
		return nil, nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	return payload, prepared, nil
}

// prepare reads the account live, resolves the fee and fills a tx builder with an empty signature slot.
func (b *Builder) prepare(ctx context.Context, req Request, mode Mode) (client.TxBuilder, *Prepared, error) {
	if _, err := types.AccAddressFromBech32(req.Sender); err != nil {
		return nil, nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "sender: %s", err)
	}
	for i, m := range req.Messages {
		if m.Signer() != req.Sender {
			return nil, nil, errorsmod.Wrapf(txerrors.ErrAccountMismatch, "message %d is signed by %s, not %s", i, m.Signer(), req.Sender)
		}
	}

	encoded, err := msgs.EncodeAll(req.Messages)
	if err != nil {
		return nil, nil, err
	}

	account, err := b.accounts.GetAccount(ctx, req.Sender)
	if err != nil {
		return nil, nil, err
	}

	pubKey, err := resolvePubKey(req, account)
	if err != nil {
		return nil, nil, err
	}

	prepared := &Prepared{Account: account, PubKey: pubKey}

	switch choice := req.Fee.(type) {
	case fee.Fixed:
		prepared.Fee = choice.Fee
	case fee.Auto:
		estimate, err := b.estimator.EstimateEncoded(ctx, chain.SimulateRequest{
			Messages:      encoded,
			Memo:          req.Memo,
			PubKey:        pubKey,
			Sequence:      account.Sequence,
			TimeoutHeight: req.TimeoutHeight,
		})
		if err != nil {
			return nil, nil, err
		}
		prepared.Fee = estimate.Fee
		prepared.Fee.Granter = choice.Granter
		prepared.Fee.Payer = choice.Payer
		prepared.GasUsed = estimate.GasUsed
	case nil:
		return nil, nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "fee is required")
	default:
		return nil, nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "unknown fee choice %T", choice)
	}

	txBuilder, err := newTxBuilder(b.enc.TxConfig, content{
		messages:      req.Messages,
		memo:          req.Memo,
		fee:           prepared.Fee,
		timeoutHeight: req.TimeoutHeight,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := setSignature(txBuilder, mode, pubKey, account.Sequence, nil); err != nil {
		return nil, nil, err
	}

	b.log.Debug("prepared sign doc",
		zap.String("sender", req.Sender),
		zap.String("mode", string(mode)),
		zap.Uint64("account_number", account.AccountNumber),
		zap.Uint64("sequence", account.Sequence),
		zap.Uint64("gas_limit", prepared.Fee.GasLimit))

	return txBuilder, prepared, nil
}

func resolvePubKey(req Request, account *chain.Account) (cryptotypes.PubKey, error) {
	var pubKey cryptotypes.PubKey
	if len(req.PubKey) > 0 {
		if len(req.PubKey) != secp256k1.PubKeySize {
			return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "public key must be %d bytes, got %d", secp256k1.PubKeySize, len(req.PubKey))
		}
		pubKey = &secp256k1.PubKey{Key: req.PubKey}
		if account.PubKey != nil && !account.PubKey.Equals(pubKey) {
			return nil, errorsmod.Wrap(txerrors.ErrAccountMismatch, "public key differs from the one recorded on chain")
		}
	} else {
		pubKey = account.PubKey
	}

	if pubKey == nil {
		return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "no public key known for %s", req.Sender)
	}
	if types.AccAddress(pubKey.Address()).String() != req.Sender {
		return nil, errorsmod.Wrap(txerrors.ErrAccountMismatch, "public key does not belong to the sender")
	}

	return pubKey, nil
}

type content struct {
	messages      []msgs.Message
	memo          string
	fee           fee.Fee
	timeoutHeight uint64
}

func newTxBuilder(txConfig client.TxConfig, c content) (client.TxBuilder, error) {
	sdkMsgs, err := msgs.ToSDKAll(c.messages)
	if err != nil {
		return nil, err
	}

	txBuilder := txConfig.NewTxBuilder()
	if err := txBuilder.SetMsgs(sdkMsgs...); err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	txBuilder.SetMemo(c.memo)
	txBuilder.SetTimeoutHeight(c.timeoutHeight)
	txBuilder.SetGasLimit(c.fee.GasLimit)
	txBuilder.SetFeeAmount(c.fee.Amount)

	if c.fee.Granter != "" {
		granter, err := types.AccAddressFromBech32(c.fee.Granter)
		if err != nil {
			return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "fee granter: %s", err)
		}
		txBuilder.SetFeeGranter(granter)
	}
	if c.fee.Payer != "" {
		payer, err := types.AccAddressFromBech32(c.fee.Payer)
		if err != nil {
			return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "fee payer: %s", err)
		}
		txBuilder.SetFeePayer(payer)
	}

	return txBuilder, nil
}

func setSignature(txBuilder client.TxBuilder, mode Mode, pubKey cryptotypes.PubKey, sequence uint64, signature []byte) error {
	err := txBuilder.SetSignatures(signing.SignatureV2{
		PubKey: pubKey,
		Data: &signing.SingleSignatureData{
			SignMode:  mode.SignMode(),
			Signature: signature,
		},
		Sequence: sequence,
	})
	if err != nil {
		return errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}
	return nil
}
