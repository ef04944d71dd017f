package signer

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"

	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/encoding"
	"github.com/saiset-co/saiCosmosTx/internal/metrics"
	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

type Scheme string

const (
	SchemeDirect Scheme = "direct"
	SchemeAmino  Scheme = "amino"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeDirect, SchemeAmino:
		return Scheme(s), nil
	}
	return "", errorsmod.Wrapf(txerrors.ErrInvalidRequest, "unknown sign scheme %q", s)
}

func (s Scheme) Mode() signdoc.Mode {
	if s == SchemeAmino {
		return signdoc.ModeAmino
	}
	return signdoc.ModeDirect
}

// Signature is immutable once produced. SignedBytes are exactly the bytes Bytes signs.
type Signature struct {
	Bytes       []byte
	SignedBytes []byte
	Scheme      Scheme
	PubKey      cryptotypes.PubKey
}

type AccountReader interface {
	GetAccount(ctx context.Context, address string) (*chain.Account, error)
}

// Adapter signs payloads with keys from a Keystore.
type Adapter struct {
	keys     *Keystore
	accounts AccountReader
	enc      *encoding.Config
	log      *zap.Logger
}

// NewAdapter returns a signer. When accounts is not nil the payload's account number and sequence
// are also checked against live chain state.
func NewAdapter(keys *Keystore, accounts AccountReader, enc *encoding.Config, log *zap.Logger) *Adapter {
	return &Adapter{
		keys:     keys,
		accounts: accounts,
		enc:      enc,
		log:      log,
	}
}

func (a *Adapter) Keys() *Keystore {
	return a.keys
}

func (a *Adapter) Sign(ctx context.Context, payload signdoc.Payload, handle KeyHandle, scheme Scheme) (*Signature, error) {
	if payload == nil {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "empty payload")
	}

	session, err := a.keys.Acquire(handle)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	if payload.Mode() != scheme.Mode() {
		return nil, errorsmod.Wrapf(txerrors.ErrSchemeMismatch, "%s payload cannot be signed with the %s scheme", payload.Mode(), scheme)
	}

	if err := a.checkPayload(payload, session); err != nil {
		return nil, err
	}

	if a.accounts != nil {
		if err := a.checkChainState(ctx, payload); err != nil {
			return nil, err
		}
	}

	signBytes, err := payload.SignBytes()
	if err != nil {
		return nil, err
	}

	sig, err := session.Sign(signBytes)
	if err != nil {
		return nil, err
	}

	metrics.Signatures.WithLabelValues(string(scheme)).Inc()
	a.log.Debug("payload signed",
		zap.String("sender", session.Address()),
		zap.String("scheme", string(scheme)),
		zap.Uint64("sequence", payload.SignerData().Sequence))

	return &Signature{
		Bytes:       sig,
		SignedBytes: signBytes,
		Scheme:      scheme,
		PubKey:      session.PubKey(),
	}, nil
}

// checkPayload rejects payloads declaring a different signer than the session's key.
func (a *Adapter) checkPayload(payload signdoc.Payload, session *Session) error {
	data := payload.SignerData()
	if data.Address != session.Address() {
		return errorsmod.Wrapf(txerrors.ErrAccountMismatch, "payload signer %s, key %s", data.Address, session.Address())
	}
	if data.PubKey != nil && !data.PubKey.Equals(session.PubKey()) {
		return errorsmod.Wrap(txerrors.ErrAccountMismatch, "payload public key differs from the key")
	}

	switch p := payload.(type) {
	case signdoc.DirectPayload:
		return a.checkDirect(p, session)
	case signdoc.AminoPayload:
		return a.checkAmino(p)
	}
	return errorsmod.Wrapf(txerrors.ErrSchemeMismatch, "unknown payload %T", payload)
}

func (a *Adapter) checkDirect(p signdoc.DirectPayload, session *Session) error {
	authInfo, err := p.AuthInfo()
	if err != nil {
		return err
	}

	for _, signerInfo := range authInfo.SignerInfos {
		if signerInfo.PublicKey == nil {
			continue
		}

		var pubKey cryptotypes.PubKey
		if err := a.enc.InterfaceRegistry.UnpackAny(signerInfo.PublicKey, &pubKey); err != nil {
			return errorsmod.Wrapf(txerrors.ErrEncoding, "signer public key: %s", err)
		}
		if !pubKey.Equals(session.PubKey()) {
			continue
		}

		if signerInfo.Sequence != p.Sequence {
			return errorsmod.Wrapf(txerrors.ErrAccountMismatch, "payload declares sequence %d, auth info has %d", p.Sequence, signerInfo.Sequence)
		}
		single := signerInfo.GetModeInfo().GetSingle()
		if single == nil || single.Mode != signdoc.ModeDirect.SignMode() {
			return errorsmod.Wrap(txerrors.ErrSchemeMismatch, "auth info does not declare direct signing for this key")
		}
		return nil
	}

	return errorsmod.Wrap(txerrors.ErrAccountMismatch, "key is not a signer of this transaction")
}

func (a *Adapter) checkAmino(p signdoc.AminoPayload) error {
	doc, err := signdoc.ParseAminoDocument(a.enc.Amino, p.Document)
	if err != nil {
		return err
	}

	if doc.ChainID != p.ChainID || doc.AccountNumber != p.AccountNumber || doc.Sequence != p.Sequence {
		return errorsmod.Wrapf(txerrors.ErrAccountMismatch,
			"document declares %s/%d/%d, payload %s/%d/%d",
			doc.ChainID, doc.AccountNumber, doc.Sequence, p.ChainID, p.AccountNumber, p.Sequence)
	}
	return nil
}

func (a *Adapter) checkChainState(ctx context.Context, payload signdoc.Payload) error {
	data := payload.SignerData()

	account, err := a.accounts.GetAccount(ctx, data.Address)
	if err != nil {
		return err
	}

	if account.AccountNumber != data.AccountNumber {
		return errorsmod.Wrapf(txerrors.ErrAccountMismatch, "payload account number %d, chain has %d", data.AccountNumber, account.AccountNumber)
	}
	if account.Sequence != data.Sequence {
		return errorsmod.Wrapf(txerrors.ErrAccountMismatch, "payload sequence %d, chain has %d", data.Sequence, account.Sequence)
	}
	return nil
}
