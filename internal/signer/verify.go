package signer

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"

	"github.com/cosmos/cosmos-sdk/client"
	xauthsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

// VerifyTx checks the signature of a single-signer encoded transaction with the sign mode
// and public key its auth info declares, as the chain's ante handler does.
func VerifyTx(txConfig client.TxConfig, txBytes []byte, chainID string, accountNumber uint64) error {
	decoded, err := txConfig.TxDecoder()(txBytes)
	if err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "decode tx: %s", err)
	}

	sigTx, ok := decoded.(xauthsigning.SigVerifiableTx)
	if !ok {
		return errorsmod.Wrap(txerrors.ErrEncoding, "transaction does not carry signatures")
	}

	sigs, err := sigTx.GetSignaturesV2()
	if err != nil {
		return errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}
	signers := sigTx.GetSigners()
	if len(sigs) != 1 || len(signers) != 1 {
		return errorsmod.Wrapf(txerrors.ErrInvalidSignature, "expected one signer, got %d signers and %d signatures", len(signers), len(sigs))
	}

	sig := sigs[0]
	if sig.PubKey == nil {
		return errorsmod.Wrap(txerrors.ErrInvalidSignature, "no public key in auth info")
	}
	if !bytes.Equal(sig.PubKey.Address(), signers[0]) {
		return errorsmod.Wrapf(txerrors.ErrAccountMismatch, "public key does not belong to signer %s", signers[0])
	}

	signerData := xauthsigning.SignerData{
		Address:       signers[0].String(),
		ChainID:       chainID,
		AccountNumber: accountNumber,
		Sequence:      sig.Sequence,
		PubKey:        sig.PubKey,
	}
	if err := xauthsigning.VerifySignature(sig.PubKey, signerData, sig.Data, txConfig.SignModeHandler(), decoded); err != nil {
		return errorsmod.Wrap(txerrors.ErrInvalidSignature, err.Error())
	}

	return nil
}
