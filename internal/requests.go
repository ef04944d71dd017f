package internal

import (
	"bytes"
	"encoding/json"
	"strings"

	errorsmod "cosmossdk.io/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types"

	"github.com/saiset-co/saiCosmosTx/internal/broadcast"
	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/model"
	"github.com/saiset-co/saiCosmosTx/internal/msgs"
	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

func toSignDocRequest(body model.TxRequestBody) (signdoc.Request, error) {
	messages, err := toMessages(body.Messages)
	if err != nil {
		return signdoc.Request{}, err
	}

	choice, err := toFeeChoice(body.Fee)
	if err != nil {
		return signdoc.Request{}, err
	}

	return signdoc.Request{
		Sender:        body.Sender,
		PubKey:        body.PubKey,
		Messages:      messages,
		Fee:           choice,
		Memo:          body.Memo,
		TimeoutHeight: body.TimeoutHeight,
	}, nil
}

func toMessages(bodies []model.Message) ([]msgs.Message, error) {
	if len(bodies) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "messages are required")
	}

	messages := make([]msgs.Message, 0, len(bodies))
	for i, body := range bodies {
		m, err := toMessage(body)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "message %d", i)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func toMessage(body model.Message) (msgs.Message, error) {
	switch msgs.Kind(body.Type) {
	case msgs.KindBankSend:
		amount, err := types.ParseCoinsNormalized(body.Amount)
		if err != nil {
			return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "amount: %s", err)
		}
		return msgs.BankSend{FromAddress: body.FromAddress, ToAddress: body.ToAddress, Amount: amount}, nil

	case msgs.KindStakingDelegate:
		amount, err := parseCoin(body.Amount)
		if err != nil {
			return nil, err
		}
		return msgs.StakingDelegate{DelegatorAddress: body.DelegatorAddress, ValidatorAddress: body.ValidatorAddress, Amount: amount}, nil

	case msgs.KindStakingUndelegate:
		amount, err := parseCoin(body.Amount)
		if err != nil {
			return nil, err
		}
		return msgs.StakingUndelegate{DelegatorAddress: body.DelegatorAddress, ValidatorAddress: body.ValidatorAddress, Amount: amount}, nil

	case msgs.KindStakingBeginRedelegate:
		amount, err := parseCoin(body.Amount)
		if err != nil {
			return nil, err
		}
		return msgs.StakingBeginRedelegate{
			DelegatorAddress:    body.DelegatorAddress,
			ValidatorSrcAddress: body.ValidatorSrcAddress,
			ValidatorDstAddress: body.ValidatorDstAddress,
			Amount:              amount,
		}, nil

	case msgs.KindDistributionWithdrawDelegatorReward:
		return msgs.DistributionWithdrawDelegatorReward{DelegatorAddress: body.DelegatorAddress, ValidatorAddress: body.ValidatorAddress}, nil

	case msgs.KindDistributionWithdrawValidatorCommission:
		return msgs.DistributionWithdrawValidatorCommission{ValidatorAddress: body.ValidatorAddress}, nil

	case msgs.KindGovVote:
		option, ok := msgs.ParseVoteOption(body.Option)
		if !ok {
			return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "option: unknown vote option %q", body.Option)
		}
		return msgs.GovVote{ProposalID: body.ProposalID, Voter: body.Voter, Option: option}, nil
	}

	return nil, errorsmod.Wrapf(txerrors.ErrUnsupportedMessageType, "%q", body.Type)
}

func parseCoin(s string) (types.Coin, error) {
	coin, err := types.ParseCoinNormalized(s)
	if err != nil {
		return types.Coin{}, errorsmod.Wrapf(txerrors.ErrEncoding, "amount: %s", err)
	}
	return coin, nil
}

// toFeeChoice reads "auto", an absent fee or a fee object. An object without gas_limit is auto
// with the given granter and payer.
func toFeeChoice(raw json.RawMessage) (fee.Choice, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fee.Auto{}, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := jsoniter.Unmarshal(trimmed, &s); err != nil || !strings.EqualFold(s, "auto") {
			return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "fee must be \"auto\" or an object, got %s", trimmed)
		}
		return fee.Auto{}, nil
	}

	var body model.Fee
	if err := jsoniter.Unmarshal(trimmed, &body); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "fee: %s", err)
	}

	if body.GasLimit == 0 {
		return fee.Auto{Granter: body.Granter, Payer: body.Payer}, nil
	}

	amount, err := types.ParseCoinsNormalized(body.Amount)
	if err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "fee amount: %s", err)
	}

	return fee.Fixed{Fee: fee.Fee{
		GasLimit: body.GasLimit,
		Amount:   amount,
		Granter:  body.Granter,
		Payer:    body.Payer,
	}}, nil
}

func toPubKey(bz []byte) (cryptotypes.PubKey, error) {
	if len(bz) == 0 {
		return nil, nil
	}
	if len(bz) != secp256k1.PubKeySize {
		return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "public key must be %d bytes, got %d", secp256k1.PubKeySize, len(bz))
	}
	return &secp256k1.PubKey{Key: bz}, nil
}

func toPayload(doc model.SignDoc) (signdoc.Payload, error) {
	mode, err := signdoc.ParseMode(doc.Mode)
	if err != nil {
		return nil, err
	}

	pubKey, err := toPubKey(doc.PubKey)
	if err != nil {
		return nil, err
	}

	if mode == signdoc.ModeAmino {
		if len(doc.Document) == 0 {
			return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "amino sign doc needs a document")
		}
		return signdoc.AminoPayload{
			Document:      doc.Document,
			ChainID:       doc.ChainID,
			AccountNumber: doc.AccountNumber,
			Sequence:      doc.Sequence,
			SignerAddress: doc.SignerAddress,
			PubKey:        pubKey,
		}, nil
	}

	if len(doc.BodyBytes) == 0 || len(doc.AuthInfoBytes) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "direct sign doc needs body_bytes and auth_info_bytes")
	}
	return signdoc.DirectPayload{
		BodyBytes:     doc.BodyBytes,
		AuthInfoBytes: doc.AuthInfoBytes,
		ChainID:       doc.ChainID,
		AccountNumber: doc.AccountNumber,
		Sequence:      doc.Sequence,
		SignerAddress: doc.SignerAddress,
		PubKey:        pubKey,
	}, nil
}

func fromPayload(payload signdoc.Payload) model.SignDoc {
	data := payload.SignerData()
	doc := model.SignDoc{
		Mode:          string(payload.Mode()),
		ChainID:       data.ChainID,
		AccountNumber: data.AccountNumber,
		Sequence:      data.Sequence,
		SignerAddress: data.Address,
	}
	if data.PubKey != nil {
		doc.PubKey = data.PubKey.Bytes()
	}

	switch p := payload.(type) {
	case signdoc.DirectPayload:
		doc.BodyBytes = p.BodyBytes
		doc.AuthInfoBytes = p.AuthInfoBytes
	case signdoc.AminoPayload:
		doc.Document = p.Document
	}
	return doc
}

// toBroadcastInput picks the input shape. Exactly one shape must be present.
func toBroadcastInput(body model.BroadcastRequestBody) (broadcast.Input, error) {
	shapes := 0
	if len(body.TxBytes) > 0 {
		shapes++
	}
	if len(body.BodyBytes) > 0 || len(body.AuthInfoBytes) > 0 || len(body.Signatures) > 0 {
		shapes++
	}
	if body.SignDoc != nil {
		shapes++
	}
	if shapes != 1 {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "provide exactly one of tx_bytes, body_bytes+auth_info_bytes+signatures or sign_doc+signature")
	}

	switch {
	case len(body.TxBytes) > 0:
		return broadcast.RawTx{Bytes: body.TxBytes}, nil

	case body.SignDoc == nil:
		return broadcast.Parts{
			BodyBytes:     body.BodyBytes,
			AuthInfoBytes: body.AuthInfoBytes,
			Signatures:    body.Signatures,
		}, nil
	}

	payload, err := toPayload(*body.SignDoc)
	if err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case signdoc.DirectPayload:
		return broadcast.DirectSigned{Payload: p, Signature: body.Signature}, nil
	case signdoc.AminoPayload:
		pubKey, err := toPubKey(body.PubKey)
		if err != nil {
			return nil, err
		}
		if pubKey == nil {
			pubKey = p.PubKey
		}
		return broadcast.AminoSigned{Document: p.Document, Signature: body.Signature, PubKey: pubKey}, nil
	}

	return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "unknown sign doc %T", payload)
}

func fromTxResult(result *broadcast.TxResult) *model.TxResponse {
	res := &model.TxResponse{
		Height:          result.Height,
		Txhash:          result.TxHash,
		Codespace:       result.Codespace,
		Code:            result.Code,
		RawLog:          result.RawLog,
		GasWanted:       result.GasWanted,
		GasUsed:         result.GasUsed,
		Timestamp:       result.Timestamp,
		Stage:           string(result.Stage),
		Messages:        make([]string, 0, len(result.MessageKinds)),
		UnknownMessages: result.UnknownTypeURLs,
	}
	for _, kind := range result.MessageKinds {
		res.Messages = append(res.Messages, string(kind))
	}
	return res
}
