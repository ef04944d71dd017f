package internal

import (
	"context"
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	"github.com/saiset-co/saiService"
	"go.uber.org/zap"

	"github.com/saiset-co/saiCosmosTx/internal/broadcast"
	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/model"
	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
	"github.com/saiset-co/saiCosmosTx/internal/signer"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
	"github.com/saiset-co/saiCosmosTx/utils"
)

func (is *InternalService) NewHandler() saiService.Handler {
	return saiService.Handler{
		"estimate_fee": saiService.HandlerElement{
			Name:        "estimate_fee",
			Description: "Simulate messages and compute gas limit and fee",
			Function:    is.estimateFee,
		},
		"build_sign_doc": saiService.HandlerElement{
			Name:        "build_sign_doc",
			Description: "Build an unsigned direct or amino sign document",
			Function:    is.buildSignDoc,
		},
		"sign": saiService.HandlerElement{
			Name:        "sign",
			Description: "Sign a sign document with a loaded key",
			Function:    is.sign,
		},
		"broadcast": saiService.HandlerElement{
			Name:        "broadcast",
			Description: "Assemble a signed transaction from raw bytes, parts or a signed sign document and broadcast it",
			Function:    is.broadcast,
		},
		"tx_result": saiService.HandlerElement{
			Name:        "tx_result",
			Description: "Get the execution result of a transaction by hash",
			Function:    is.txResult,
		},
		"wait_tx": saiService.HandlerElement{
			Name:        "wait_tx",
			Description: "Poll until a transaction is included and return its result",
			Function:    is.waitTx,
		},
		"make_tx": saiService.HandlerElement{
			Name:        "make_tx",
			Description: "Build, sign and broadcast a transaction with a loaded key, then wait for inclusion",
			Function:    is.makeTx,
		},
		"account": saiService.HandlerElement{
			Name:        "account",
			Description: "Get account number and sequence",
			Function:    is.account,
		},
		"balances": saiService.HandlerElement{
			Name:        "balances",
			Description: "Get all balances of an address",
			Function:    is.balances,
		},
		"delegations": saiService.HandlerElement{
			Name:        "delegations",
			Description: "Get delegations of a delegator",
			Function:    is.delegations,
		},
		"rewards": saiService.HandlerElement{
			Name:        "rewards",
			Description: "Get pending staking rewards of a delegator",
			Function:    is.rewards,
		},
	}
}

func (is *InternalService) estimateFee(data, _ interface{}) (interface{}, int, error) {
	var body model.EstimateFeeRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("estimate_fee", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	req, err := toSignDocRequest(body.TxRequestBody)
	if err != nil {
		return is.fail("estimate_fee", err, "")
	}

	ctx := context.Background()

	account, err := is.connector.GetAccount(ctx, req.Sender)
	if err != nil {
		return is.fail("estimate_fee", err, "")
	}

	pubKey, err := toPubKey(req.PubKey)
	if err != nil {
		return is.fail("estimate_fee", err, "")
	}
	if pubKey == nil {
		pubKey = account.PubKey
	}

	estimate, err := is.estimator.EstimateFee(ctx, req.Messages, req.Memo, fee.Signer{PubKey: pubKey, Sequence: account.Sequence})
	if err != nil {
		return is.fail("estimate_fee", err, "")
	}

	return model.FeeResponse{
		GasUsed:  estimate.GasUsed,
		GasLimit: estimate.Fee.GasLimit,
		Amount:   estimate.Fee.Amount.String(),
	}, http.StatusOK, nil
}

func (is *InternalService) buildSignDoc(data, _ interface{}) (interface{}, int, error) {
	var body model.BuildSignDocRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("build_sign_doc", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	mode, err := signdoc.ParseMode(body.Mode)
	if err != nil {
		return is.fail("build_sign_doc", err, "")
	}

	req, err := toSignDocRequest(body.TxRequestBody)
	if err != nil {
		return is.fail("build_sign_doc", err, "")
	}

	payload, _, err := is.builder.Build(context.Background(), req, mode)
	if err != nil {
		return is.fail("build_sign_doc", err, "")
	}

	return fromPayload(payload), http.StatusOK, nil
}

func (is *InternalService) sign(data, _ interface{}) (interface{}, int, error) {
	var body model.SignRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("sign", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	payload, err := toPayload(body.SignDoc)
	if err != nil {
		return is.fail("sign", err, "")
	}

	scheme := signer.Scheme(payload.Mode())
	if body.Scheme != "" {
		if scheme, err = signer.ParseScheme(body.Scheme); err != nil {
			return is.fail("sign", err, "")
		}
	}

	handle, err := is.keyHandle(body)
	if err != nil {
		return is.fail("sign", err, "")
	}

	sig, err := is.signer.Sign(context.Background(), payload, handle, scheme)
	if err != nil {
		return is.fail("sign", err, "")
	}

	return model.SignResponse{
		Scheme:      string(sig.Scheme),
		Signature:   sig.Bytes,
		SignedBytes: sig.SignedBytes,
		PubKey:      sig.PubKey.Bytes(),
	}, http.StatusOK, nil
}

func (is *InternalService) keyHandle(body model.SignRequestBody) (signer.KeyHandle, error) {
	if body.KeyIndex != nil {
		return signer.KeyHandle{Index: *body.KeyIndex}, nil
	}

	address := body.Address
	if address == "" {
		address = body.SignDoc.SignerAddress
	}
	return is.signer.Keys().Find(address)
}

func (is *InternalService) broadcast(data, _ interface{}) (interface{}, int, error) {
	var body model.BroadcastRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("broadcast", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	input, err := toBroadcastInput(body)
	if err != nil {
		return is.fail("broadcast", err, "")
	}

	ctx := context.Background()

	result, err := is.broadcaster.AssembleAndBroadcast(ctx, input)
	if err != nil {
		return is.fail("broadcast", err, txHashOf(result))
	}

	res := fromBroadcastResult(result)
	if body.Wait {
		is.wait(ctx, &res)
	}

	return res, http.StatusOK, nil
}

func (is *InternalService) txResult(data, _ interface{}) (interface{}, int, error) {
	var body model.TxResultRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("tx_result", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	result, err := is.broadcaster.GetTxResult(context.Background(), body.TxHash)
	if err != nil {
		return is.fail("tx_result", err, body.TxHash)
	}

	return fromTxResult(result), http.StatusOK, nil
}

func (is *InternalService) waitTx(data, _ interface{}) (interface{}, int, error) {
	var body model.TxResultRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("wait_tx", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	result, err := is.broadcaster.WaitTxResult(context.Background(), body.TxHash)
	if err != nil {
		return is.fail("wait_tx", err, body.TxHash)
	}

	return fromTxResult(result), http.StatusOK, nil
}

// makeTx runs build, sign and broadcast with a loaded key. Calls for the same sender are serialized
// until the previous transaction is included, so each one reads a fresh sequence.
func (is *InternalService) makeTx(data, _ interface{}) (interface{}, int, error) {
	var body model.MakeTxRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return is.fail("make_tx", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error()), "")
	}

	mode, err := signdoc.ParseMode(body.Mode)
	if err != nil {
		return is.fail("make_tx", err, "")
	}

	req, err := toSignDocRequest(body.TxRequestBody)
	if err != nil {
		return is.fail("make_tx", err, "")
	}

	handle, err := is.signer.Keys().Find(req.Sender)
	if err != nil {
		return is.fail("make_tx", err, "")
	}

	if len(req.PubKey) == 0 {
		session, err := is.signer.Keys().Acquire(handle)
		if err != nil {
			return is.fail("make_tx", err, "")
		}
		req.PubKey = session.PubKey().Bytes()
		session.Release()
	}

	release := is.senders.acquire(req.Sender)
	defer release()

	ctx := context.Background()

	payload, _, err := is.builder.Build(ctx, req, mode)
	if err != nil {
		return is.fail("make_tx", err, "")
	}

	scheme := signer.Scheme(mode)
	sig, err := is.signer.Sign(ctx, payload, handle, scheme)
	if err != nil {
		return is.fail("make_tx", err, "")
	}

	var input broadcast.Input
	switch p := payload.(type) {
	case signdoc.DirectPayload:
		input = broadcast.DirectSigned{Payload: p, Signature: sig.Bytes}
	case signdoc.AminoPayload:
		input = broadcast.AminoSigned{Document: p.Document, Signature: sig.Bytes, PubKey: sig.PubKey}
	}

	result, err := is.broadcaster.AssembleAndBroadcast(ctx, input)
	if err != nil {
		return is.fail("make_tx", err, txHashOf(result))
	}

	res := fromBroadcastResult(result)
	is.wait(ctx, &res)

	is.log.Info("transaction made",
		zap.String("sender", req.Sender),
		zap.String("tx_hash", res.TxHash),
		zap.String("stage", res.Stage))

	return res, http.StatusOK, nil
}

// wait attaches the execution result. A transaction that is still not indexed stays "accepted".
func (is *InternalService) wait(ctx context.Context, res *model.BroadcastResponse) {
	result, err := is.broadcaster.WaitTxResult(ctx, res.TxHash)
	if err != nil {
		if !errors.Is(err, txerrors.ErrResultNotFound) {
			is.log.Warn("unable to get tx result", zap.String("tx_hash", res.TxHash), zap.Error(err))
		}
		return
	}

	res.Result = fromTxResult(result)
	res.Stage = string(result.Stage)
}

func (is *InternalService) account(data, _ interface{}) (interface{}, int, error) {
	address, err := decodeAddress(data)
	if err != nil {
		return is.fail("account", err, "")
	}

	account, err := is.connector.GetAccount(context.Background(), address)
	if err != nil {
		return is.fail("account", err, "")
	}

	res := model.AccountResponse{
		Address:       account.Address,
		AccountNumber: account.AccountNumber,
		Sequence:      account.Sequence,
	}
	if account.PubKey != nil {
		res.PubKey = account.PubKey.Bytes()
	}

	return res, http.StatusOK, nil
}

func (is *InternalService) balances(data, _ interface{}) (interface{}, int, error) {
	address, err := decodeAddress(data)
	if err != nil {
		return is.fail("balances", err, "")
	}

	balances, err := is.connector.GetBalances(context.Background(), address)
	if err != nil {
		return is.fail("balances", err, "")
	}

	return model.BalancesResponse{Address: address, Balances: balances}, http.StatusOK, nil
}

func (is *InternalService) delegations(data, _ interface{}) (interface{}, int, error) {
	address, err := decodeAddress(data)
	if err != nil {
		return is.fail("delegations", err, "")
	}

	delegations, err := is.connector.GetDelegations(context.Background(), address)
	if err != nil {
		return is.fail("delegations", err, "")
	}

	res := model.DelegationsResponse{Address: address, Delegations: make([]model.Delegation, 0, len(delegations))}
	for _, d := range delegations {
		res.Delegations = append(res.Delegations, fromDelegation(d))
	}

	return res, http.StatusOK, nil
}

func (is *InternalService) rewards(data, _ interface{}) (interface{}, int, error) {
	address, err := decodeAddress(data)
	if err != nil {
		return is.fail("rewards", err, "")
	}

	rewards, err := is.connector.GetRewards(context.Background(), address)
	if err != nil {
		return is.fail("rewards", err, "")
	}

	return model.RewardsResponse{
		Address:      address,
		Total:        rewards.Total,
		PerValidator: rewards.PerValidator,
	}, http.StatusOK, nil
}

func decodeAddress(data interface{}) (string, error) {
	var body model.AddressRequestBody
	if err := utils.DecodeRequest(data, &body); err != nil {
		return "", errorsmod.Wrap(txerrors.ErrInvalidRequest, err.Error())
	}
	if body.Address == "" {
		return "", errorsmod.Wrap(txerrors.ErrInvalidRequest, "address is required")
	}
	return body.Address, nil
}

func fromBroadcastResult(result *broadcast.Result) model.BroadcastResponse {
	return model.BroadcastResponse{
		TxHash:    result.TxHash,
		Code:      result.Code,
		Codespace: result.Codespace,
		RawLog:    result.RawLog,
		Stage:     string(result.Stage),
	}
}

func fromDelegation(d chain.Delegation) model.Delegation {
	return model.Delegation{
		ValidatorAddress: d.ValidatorAddress,
		Shares:           d.Shares.String(),
		Balance:          d.Balance,
	}
}

func txHashOf(result *broadcast.Result) string {
	if result == nil {
		return ""
	}
	return result.TxHash
}
