package internal

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmos/cosmos-sdk/crypto"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"

	"github.com/saiset-co/saiCosmosTx/internal/broadcast"
	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/encoding"
	"github.com/saiset-co/saiCosmosTx/internal/model"
	"github.com/saiset-co/saiCosmosTx/internal/signer"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

const testChainID = "cosmoshub-test"

// fakeChain keeps accounts in memory, indexes every accepted transaction and advances sequences.
type fakeChain struct {
	mu sync.Mutex

	accounts map[string]chain.Account
	gasUsed  uint64

	broadcastCode uint32
	broadcastLog  string
	broadcastErr  error
	noIndex       bool
	sent          [][]byte
	indexed       map[string]*chain.TxResponse

	balances    sdk.Coins
	delegations []chain.Delegation
	rewards     *chain.Rewards
}

func (f *fakeChain) GetAccount(_ context.Context, address string) (*chain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[address]
	if !ok {
		return nil, errorsmod.Wrapf(txerrors.ErrAccountNotFound, "account %s", address)
	}
	return &account, nil
}

func (f *fakeChain) GetChainID(context.Context) (string, error) {
	return testChainID, nil
}

func (f *fakeChain) Simulate(context.Context, chain.SimulateRequest) (uint64, error) {
	return f.gasUsed, nil
}

func (f *fakeChain) Broadcast(_ context.Context, txBytes []byte) (*chain.BroadcastResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.broadcastErr != nil {
		return nil, f.broadcastErr
	}

	f.sent = append(f.sent, txBytes)
	hash := broadcast.TxHash(txBytes)
	if f.broadcastCode != 0 {
		return &chain.BroadcastResponse{TxHash: hash, Code: f.broadcastCode, Codespace: "sdk", RawLog: f.broadcastLog}, nil
	}

	for address, account := range f.accounts {
		account.Sequence++
		f.accounts[address] = account
	}

	if !f.noIndex {
		var raw txtypes.TxRaw
		var body txtypes.TxBody
		if err := raw.Unmarshal(txBytes); err != nil {
			return nil, err
		}
		if err := body.Unmarshal(raw.BodyBytes); err != nil {
			return nil, err
		}
		f.indexed[hash] = &chain.TxResponse{
			TxHash:    hash,
			Height:    100,
			GasWanted: 112000,
			GasUsed:   80000,
			Messages:  body.Messages,
		}
	}

	return &chain.BroadcastResponse{TxHash: hash}, nil
}

func (f *fakeChain) GetTx(_ context.Context, txHash string) (*chain.TxResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.indexed[txHash]
	if !ok {
		return nil, errorsmod.Wrapf(txerrors.ErrResultNotFound, "tx %s", txHash)
	}
	return res, nil
}

func (f *fakeChain) GetBalances(context.Context, string) (sdk.Coins, error) {
	return f.balances, nil
}

func (f *fakeChain) GetDelegations(context.Context, string) ([]chain.Delegation, error) {
	return f.delegations, nil
}

func (f *fakeChain) GetRewards(context.Context, string) (*chain.Rewards, error) {
	return f.rewards, nil
}

func (f *fakeChain) Close() error {
	return nil
}

type fixture struct {
	is       *InternalService
	chain    *fakeChain
	sender   string
	receiver string
	pubKey   []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	enc := encoding.NewConfig()
	keys := signer.NewKeystore(enc.Codec, zap.NewNop())

	priv := secp256k1.GenPrivKey()
	_, err := keys.ImportArmored(crypto.EncryptArmorPrivKey(priv, "secret", "secp256k1"), "secret")
	require.NoError(t, err)

	sender := sdk.AccAddress(priv.PubKey().Address()).String()
	fc := &fakeChain{
		accounts: map[string]chain.Account{
			sender: {Address: sender, AccountNumber: 7, Sequence: 3},
		},
		gasUsed: 80000,
		indexed: map[string]*chain.TxResponse{},
	}

	is := &InternalService{enc: enc, log: zap.NewNop()}
	require.NoError(t, is.wire(Config{
		ChainID:       testChainID,
		GasMultiplier: "1.4",
		GasPrice:      "0.025uatom",
		PollAttempts:  2,
		PollDelay:     time.Millisecond,
	}, fc, keys))

	return &fixture{
		is:       is,
		chain:    fc,
		sender:   sender,
		receiver: sdk.AccAddress(secp256k1.GenPrivKey().PubKey().Address()).String(),
		pubKey:   priv.PubKey().Bytes(),
	}
}

func (f *fixture) sendBody(extra map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"sender": f.sender,
		"messages": []map[string]interface{}{{
			"type":         "bank_send",
			"from_address": f.sender,
			"to_address":   f.receiver,
			"amount":       "1000000uatom",
		}},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func (f *fixture) sentSequence(t *testing.T, i int) uint64 {
	t.Helper()

	var raw txtypes.TxRaw
	require.NoError(t, raw.Unmarshal(f.chain.sent[i]))
	var authInfo txtypes.AuthInfo
	require.NoError(t, authInfo.Unmarshal(raw.AuthInfoBytes))
	require.Len(t, authInfo.SignerInfos, 1)
	return authInfo.SignerInfos[0].Sequence
}

func TestHandlersAreRegistered(t *testing.T) {
	f := newFixture(t)
	handler := f.is.NewHandler()

	for _, name := range []string{
		"estimate_fee", "build_sign_doc", "sign", "broadcast", "tx_result", "wait_tx",
		"make_tx", "account", "balances", "delegations", "rewards",
	} {
		element, ok := handler[name]
		require.True(t, ok, name)
		assert.Equal(t, name, element.Name)
		assert.NotNil(t, element.Function)
	}
}

func TestEstimateFee(t *testing.T) {
	f := newFixture(t)

	res, status, err := f.is.estimateFee(f.sendBody(map[string]interface{}{"pub_key": f.pubKey}), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.FeeResponse{GasUsed: 80000, GasLimit: 112000, Amount: "2800uatom"}, res)
}

func TestEstimateFeeUnknownAccount(t *testing.T) {
	f := newFixture(t)

	body := f.sendBody(nil)
	body["sender"] = f.receiver
	body["messages"] = []map[string]interface{}{{
		"type":         "bank_send",
		"from_address": f.receiver,
		"to_address":   f.sender,
		"amount":       "1uatom",
	}}

	res, status, err := f.is.estimateFee(body, nil)
	require.ErrorIs(t, err, txerrors.ErrAccountNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(txerrors.StageNotSent), res.(model.ErrorResponse).Stage)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)

	cases := map[string]struct {
		call func(data, meta interface{}) (interface{}, int, error)
		data interface{}
		err  *errorsmod.Error
	}{
		"nil body":          {f.is.buildSignDoc, nil, txerrors.ErrInvalidRequest},
		"no messages":       {f.is.buildSignDoc, map[string]interface{}{"sender": f.sender}, txerrors.ErrInvalidRequest},
		"unknown message":   {f.is.buildSignDoc, f.sendBody(map[string]interface{}{"messages": []map[string]interface{}{{"type": "bank_multi_send"}}}), txerrors.ErrUnsupportedMessageType},
		"bad amount":        {f.is.makeTx, f.sendBody(map[string]interface{}{"messages": []map[string]interface{}{{"type": "staking_delegate", "amount": "lots"}}}), txerrors.ErrEncoding},
		"bad mode":          {f.is.buildSignDoc, f.sendBody(map[string]interface{}{"mode": "textual"}), txerrors.ErrInvalidRequest},
		"bad fee":           {f.is.buildSignDoc, f.sendBody(map[string]interface{}{"fee": "cheap"}), txerrors.ErrInvalidRequest},
		"no address":        {f.is.account, map[string]interface{}{}, txerrors.ErrInvalidRequest},
		"bad hash":          {f.is.txResult, map[string]interface{}{"tx_hash": "abc"}, txerrors.ErrInvalidRequest},
		"two inputs":        {f.is.broadcast, map[string]interface{}{"tx_bytes": []byte{1}, "body_bytes": []byte{2}}, txerrors.ErrInvalidRequest},
		"no input":          {f.is.broadcast, map[string]interface{}{}, txerrors.ErrInvalidRequest},
		"key not loaded":    {f.is.sign, map[string]interface{}{"sign_doc": map[string]interface{}{"mode": "direct", "body_bytes": []byte{1}, "auth_info_bytes": []byte{1}, "signer_address": f.receiver}}, txerrors.ErrKeyNotFound},
		"foreign make_tx":   {f.is.makeTx, f.sendBody(map[string]interface{}{"sender": f.receiver}), txerrors.ErrKeyNotFound},
		"wrong sign scheme": {f.is.sign, map[string]interface{}{"scheme": "legacy", "sign_doc": map[string]interface{}{"mode": "direct", "body_bytes": []byte{1}, "auth_info_bytes": []byte{1}}}, txerrors.ErrInvalidRequest},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			res, status, err := tc.call(tc.data, nil)
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, httpStatus(err), status)
			assert.Less(t, status, http.StatusInternalServerError)

			errRes, ok := res.(model.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, txerrors.Codespace, errRes.Codespace)
			assert.Equal(t, string(txerrors.StageNotSent), errRes.Stage)
		})
	}

	assert.Empty(t, f.chain.sent)
}

func TestMakeTx(t *testing.T) {
	f := newFixture(t)

	res, status, err := f.is.makeTx(f.sendBody(map[string]interface{}{"memo": "hello"}), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	out := res.(model.BroadcastResponse)
	assert.Equal(t, string(txerrors.StageExecuted), out.Stage)
	require.Len(t, f.chain.sent, 1)
	assert.Equal(t, broadcast.TxHash(f.chain.sent[0]), out.TxHash)
	require.NotNil(t, out.Result)
	assert.Equal(t, int64(100), out.Result.Height)
	assert.Equal(t, []string{"bank_send"}, out.Result.Messages)

	assert.Equal(t, uint64(3), f.sentSequence(t, 0))

	var raw txtypes.TxRaw
	require.NoError(t, raw.Unmarshal(f.chain.sent[0]))
	var authInfo txtypes.AuthInfo
	require.NoError(t, authInfo.Unmarshal(raw.AuthInfoBytes))
	assert.Equal(t, uint64(112000), authInfo.Fee.GasLimit)
	assert.Equal(t, "2800uatom", authInfo.Fee.Amount.String())
}

func TestMakeTxAmino(t *testing.T) {
	f := newFixture(t)

	res, status, err := f.is.makeTx(f.sendBody(map[string]interface{}{"mode": "amino"}), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(txerrors.StageExecuted), res.(model.BroadcastResponse).Stage)
	require.Len(t, f.chain.sent, 1)
}

func TestMakeTxSequential(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		_, _, err := f.is.makeTx(f.sendBody(nil), nil)
		require.NoError(t, err)
	}

	require.Len(t, f.chain.sent, 2)
	assert.Equal(t, uint64(3), f.sentSequence(t, 0))
	assert.Equal(t, uint64(4), f.sentSequence(t, 1))
}

func TestMakeTxConcurrentSameSender(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.is.makeTx(f.sendBody(nil), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, f.chain.sent, 4)
	seen := map[uint64]bool{}
	for i := range f.chain.sent {
		seen[f.sentSequence(t, i)] = true
	}
	assert.Len(t, seen, 4)
	assert.Zero(t, f.is.senders.len())
}

func TestMakeTxRejected(t *testing.T) {
	f := newFixture(t)
	f.chain.broadcastCode = 32
	f.chain.broadcastLog = "account sequence mismatch, expected 4, got 3"

	res, status, err := f.is.makeTx(f.sendBody(nil), nil)
	require.ErrorIs(t, err, txerrors.ErrBroadcast)
	assert.Equal(t, http.StatusConflict, status)

	out := res.(model.ErrorResponse)
	assert.Equal(t, string(txerrors.StageRejected), out.Stage)
	assert.Equal(t, broadcast.TxHash(f.chain.sent[0]), out.TxHash)
	assert.Contains(t, out.Error, "sequence mismatch")
}

func TestMakeTxOutcomeUnknown(t *testing.T) {
	f := newFixture(t)
	f.chain.broadcastErr = errorsmod.Wrap(txerrors.ErrConnection, "connection reset")

	res, status, err := f.is.makeTx(f.sendBody(nil), nil)
	require.ErrorIs(t, err, txerrors.ErrOutcomeUnknown)
	assert.Equal(t, http.StatusBadGateway, status)

	out := res.(model.ErrorResponse)
	assert.Equal(t, string(txerrors.StageUnknown), out.Stage)
	assert.NotEmpty(t, out.TxHash)
}

func TestMakeTxNotIndexedStaysAccepted(t *testing.T) {
	f := newFixture(t)
	f.chain.noIndex = true

	res, status, err := f.is.makeTx(f.sendBody(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	out := res.(model.BroadcastResponse)
	assert.Equal(t, string(txerrors.StageAccepted), out.Stage)
	assert.Nil(t, out.Result)
}

func TestBuildSignBroadcast(t *testing.T) {
	for _, mode := range []string{"direct", "amino"} {
		mode := mode
		t.Run(mode, func(t *testing.T) {
			f := newFixture(t)

			res, status, err := f.is.buildSignDoc(f.sendBody(map[string]interface{}{
				"mode":    mode,
				"pub_key": f.pubKey,
				"fee":     map[string]interface{}{"gas_limit": 200000, "amount": "5000uatom"},
			}), nil)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, status)

			doc := res.(model.SignDoc)
			assert.Equal(t, mode, doc.Mode)
			assert.Equal(t, testChainID, doc.ChainID)
			assert.Equal(t, uint64(7), doc.AccountNumber)
			assert.Equal(t, uint64(3), doc.Sequence)
			assert.Equal(t, f.sender, doc.SignerAddress)

			res, status, err = f.is.sign(model.SignRequestBody{SignDoc: doc}, nil)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, status)

			sig := res.(model.SignResponse)
			assert.Equal(t, mode, sig.Scheme)
			assert.Equal(t, f.pubKey, sig.PubKey)

			res, status, err = f.is.broadcast(model.BroadcastRequestBody{
				SignDoc:   &doc,
				Signature: sig.Signature,
				Wait:      true,
			}, nil)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, status)

			out := res.(model.BroadcastResponse)
			assert.Equal(t, string(txerrors.StageExecuted), out.Stage)
			require.NotNil(t, out.Result)

			res, status, err = f.is.txResult(map[string]interface{}{"tx_hash": out.TxHash}, nil)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, out.TxHash, res.(*model.TxResponse).Txhash)
		})
	}
}

func TestBroadcastTamperedSignature(t *testing.T) {
	f := newFixture(t)

	res, _, err := f.is.buildSignDoc(f.sendBody(map[string]interface{}{"pub_key": f.pubKey}), nil)
	require.NoError(t, err)
	doc := res.(model.SignDoc)

	res, _, err = f.is.sign(model.SignRequestBody{SignDoc: doc}, nil)
	require.NoError(t, err)
	signature := res.(model.SignResponse).Signature
	signature[0] ^= 0xff

	res, status, err := f.is.broadcast(model.BroadcastRequestBody{SignDoc: &doc, Signature: signature}, nil)
	require.ErrorIs(t, err, txerrors.ErrInvalidSignature)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(txerrors.StageNotSent), res.(model.ErrorResponse).Stage)
	assert.Empty(t, f.chain.sent)
}

func TestSignSchemeMismatch(t *testing.T) {
	f := newFixture(t)

	res, _, err := f.is.buildSignDoc(f.sendBody(map[string]interface{}{"pub_key": f.pubKey}), nil)
	require.NoError(t, err)

	_, status, err := f.is.sign(model.SignRequestBody{SignDoc: res.(model.SignDoc), Scheme: "amino"}, nil)
	require.ErrorIs(t, err, txerrors.ErrSchemeMismatch)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTxResultNotFound(t *testing.T) {
	f := newFixture(t)

	hash := broadcast.TxHash([]byte("missing"))

	res, status, err := f.is.txResult(map[string]interface{}{"tx_hash": hash}, nil)
	require.ErrorIs(t, err, txerrors.ErrResultNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(txerrors.StageUnknown), res.(model.ErrorResponse).Stage)

	_, status, err = f.is.waitTx(map[string]interface{}{"tx_hash": hash}, nil)
	require.ErrorIs(t, err, txerrors.ErrResultNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAccountQueries(t *testing.T) {
	f := newFixture(t)
	validator := sdk.ValAddress(secp256k1.GenPrivKey().PubKey().Address()).String()

	f.chain.balances = sdk.NewCoins(sdk.NewInt64Coin("uatom", 42))
	f.chain.delegations = []chain.Delegation{{
		ValidatorAddress: validator,
		Shares:           sdk.NewDec(10),
		Balance:          sdk.NewInt64Coin("uatom", 10),
	}}
	f.chain.rewards = &chain.Rewards{
		Total:        sdk.NewDecCoins(sdk.NewInt64DecCoin("uatom", 3)),
		PerValidator: map[string]sdk.DecCoins{validator: sdk.NewDecCoins(sdk.NewInt64DecCoin("uatom", 3))},
	}

	body := map[string]interface{}{"address": f.sender}

	res, status, err := f.is.account(body, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.AccountResponse{Address: f.sender, AccountNumber: 7, Sequence: 3}, res)

	res, _, err = f.is.balances(body, nil)
	require.NoError(t, err)
	assert.Equal(t, "42uatom", res.(model.BalancesResponse).Balances.String())

	res, _, err = f.is.delegations(body, nil)
	require.NoError(t, err)
	delegations := res.(model.DelegationsResponse).Delegations
	require.Len(t, delegations, 1)
	assert.Equal(t, validator, delegations[0].ValidatorAddress)
	assert.Equal(t, sdk.NewDec(10).String(), delegations[0].Shares)

	res, _, err = f.is.rewards(body, nil)
	require.NoError(t, err)
	assert.Equal(t, f.chain.rewards.Total, res.(model.RewardsResponse).Total)

	_, status, err = f.is.account(map[string]interface{}{"address": f.receiver}, nil)
	require.ErrorIs(t, err, txerrors.ErrAccountNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}
