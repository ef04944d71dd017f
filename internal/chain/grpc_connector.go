package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cosmos/cosmos-sdk/client/grpc/tmservice"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distributiontypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

const pageSize = 100

// GrpcConnector talks to a node's gRPC endpoint.
type GrpcConnector struct {
	conn           *grpc.ClientConn
	cdc            *codec.ProtoCodec
	requestTimeout time.Duration

	authClient         authtypes.QueryClient
	bankClient         banktypes.QueryClient
	distributionClient distributiontypes.QueryClient
	stakingClient      stakingtypes.QueryClient
	tmClient           tmservice.ServiceClient
	txClient           txtypes.ServiceClient

	log *zap.Logger
}

var _ Connector = (*GrpcConnector)(nil)

type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
}

// Connect dials the endpoint. An unreachable endpoint fails with ErrConnection.
func Connect(ctx context.Context, endpoint string, cdc *codec.ProtoCodec, opts Options, log *zap.Logger) (*GrpcConnector, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	conn, err := dial(ctx, endpoint, opts.DialTimeout)
	if err != nil {
		log.Error("unable to connect to gRPC", zap.String("grpc_url", endpoint), zap.Error(err))
		return nil, err
	}

	return &GrpcConnector{
		conn:           conn,
		cdc:            cdc,
		requestTimeout: opts.RequestTimeout,

		authClient:         authtypes.NewQueryClient(conn),
		bankClient:         banktypes.NewQueryClient(conn),
		distributionClient: distributiontypes.NewQueryClient(conn),
		stakingClient:      stakingtypes.NewQueryClient(conn),
		tmClient:           tmservice.NewServiceClient(conn),
		txClient:           txtypes.NewServiceClient(conn),

		log: log.With(zap.String("grpc_url", endpoint)),
	}, nil
}

func (c *GrpcConnector) Close() error {
	return c.conn.Close()
}

func (c *GrpcConnector) GetAccount(ctx context.Context, address string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.authClient.Account(ctx, &authtypes.QueryAccountRequest{Address: address})
	if err != nil {
		return nil, mapQueryError(err, txerrors.ErrAccountNotFound, address)
	}

	var account authtypes.AccountI
	if err := c.cdc.UnpackAny(res.Account, &account); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "account %s: %s", address, err)
	}

	c.log.Debug("retrieved account",
		zap.String("address", address),
		zap.Uint64("account_number", account.GetAccountNumber()),
		zap.Uint64("sequence", account.GetSequence()))

	return &Account{
		Address:       address,
		PubKey:        account.GetPubKey(),
		AccountNumber: account.GetAccountNumber(),
		Sequence:      account.GetSequence(),
	}, nil
}

func (c *GrpcConnector) GetChainID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.tmClient.GetNodeInfo(ctx, &tmservice.GetNodeInfoRequest{})
	if err != nil {
		return "", mapQueryError(err, txerrors.ErrConnection, "node info")
	}

	chainID := res.GetDefaultNodeInfo().GetNetwork()
	if chainID == "" {
		return "", errorsmod.Wrap(txerrors.ErrConnection, "node reported an empty chain id")
	}

	return chainID, nil
}

// Simulate dry-runs the messages with an empty signature and returns the gas used.
func (c *GrpcConnector) Simulate(ctx context.Context, req SimulateRequest) (uint64, error) {
	txBytes, err := simulationTxBytes(req)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.txClient.Simulate(ctx, &txtypes.SimulateRequest{TxBytes: txBytes})
	if err != nil {
		if isConnectionError(err) {
			return 0, errorsmod.Wrap(txerrors.ErrConnection, err.Error())
		}
		return 0, errorsmod.Wrap(txerrors.ErrSimulation, status.Convert(err).Message())
	}
	if res.GasInfo == nil {
		return 0, errorsmod.Wrap(txerrors.ErrSimulation, "no gas info in simulation response")
	}

	return res.GasInfo.GasUsed, nil
}

// Broadcast submits in sync mode: the response carries the CheckTx verdict only.
func (c *GrpcConnector) Broadcast(ctx context.Context, txBytes []byte) (*BroadcastResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
		TxBytes: txBytes,
	})
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrConnection, err.Error())
	}
	if res.TxResponse == nil {
		return nil, errorsmod.Wrap(txerrors.ErrConnection, "empty broadcast response")
	}

	return &BroadcastResponse{
		TxHash:    res.TxResponse.TxHash,
		Code:      res.TxResponse.Code,
		Codespace: res.TxResponse.Codespace,
		RawLog:    res.TxResponse.RawLog,
		GasWanted: res.TxResponse.GasWanted,
	}, nil
}

func (c *GrpcConnector) GetTx(ctx context.Context, txHash string) (*TxResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.txClient.GetTx(ctx, &txtypes.GetTxRequest{Hash: txHash})
	if err != nil {
		return nil, mapQueryError(err, txerrors.ErrResultNotFound, txHash)
	}
	if res.TxResponse == nil {
		return nil, errorsmod.Wrap(txerrors.ErrResultNotFound, txHash)
	}

	txResponse := &TxResponse{
		TxHash:    res.TxResponse.TxHash,
		Height:    res.TxResponse.Height,
		Code:      res.TxResponse.Code,
		Codespace: res.TxResponse.Codespace,
		RawLog:    res.TxResponse.RawLog,
		GasWanted: res.TxResponse.GasWanted,
		GasUsed:   res.TxResponse.GasUsed,
		Timestamp: res.TxResponse.Timestamp,
	}
	if res.Tx != nil && res.Tx.Body != nil {
		txResponse.Messages = res.Tx.Body.Messages
	}

	return txResponse, nil
}

func (c *GrpcConnector) GetBalances(ctx context.Context, address string) (sdk.Coins, error) {
	fetchPage := func(ctx context.Context, pageKey []byte) (*paginatedResponse[sdk.Coin], error) {
		res, err := c.bankClient.AllBalances(ctx, &banktypes.QueryAllBalancesRequest{
			Address:    address,
			Pagination: &query.PageRequest{Key: pageKey, Limit: pageSize},
		})
		if err != nil {
			return nil, err
		}
		return &paginatedResponse[sdk.Coin]{data: res.Balances, nextKey: nextKey(res.Pagination)}, nil
	}

	balances, err := retrievePaginated(ctx, c, "balances", fetchPage)
	if err != nil {
		return nil, mapQueryError(err, txerrors.ErrAccountNotFound, address)
	}

	return sdk.NewCoins(balances...), nil
}

func (c *GrpcConnector) GetDelegations(ctx context.Context, delegator string) ([]Delegation, error) {
	fetchPage := func(ctx context.Context, pageKey []byte) (*paginatedResponse[Delegation], error) {
		res, err := c.stakingClient.DelegatorDelegations(ctx, &stakingtypes.QueryDelegatorDelegationsRequest{
			DelegatorAddr: delegator,
			Pagination:    &query.PageRequest{Key: pageKey, Limit: pageSize},
		})
		if err != nil {
			return nil, err
		}

		delegations := make([]Delegation, 0, len(res.DelegationResponses))
		for _, d := range res.DelegationResponses {
			delegations = append(delegations, Delegation{
				ValidatorAddress: d.Delegation.ValidatorAddress,
				Shares:           d.Delegation.Shares,
				Balance:          d.Balance,
			})
		}
		return &paginatedResponse[Delegation]{data: delegations, nextKey: nextKey(res.Pagination)}, nil
	}

	delegations, err := retrievePaginated(ctx, c, "delegations", fetchPage)
	if err != nil {
		return nil, mapQueryError(err, txerrors.ErrAccountNotFound, delegator)
	}

	return delegations, nil
}

func (c *GrpcConnector) GetRewards(ctx context.Context, delegator string) (*Rewards, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	res, err := c.distributionClient.DelegationTotalRewards(ctx, &distributiontypes.QueryDelegationTotalRewardsRequest{
		DelegatorAddress: delegator,
	})
	if err != nil {
		return nil, mapQueryError(err, txerrors.ErrAccountNotFound, delegator)
	}

	rewards := &Rewards{
		Total:        res.Total,
		PerValidator: make(map[string]sdk.DecCoins, len(res.Rewards)),
	}
	for _, reward := range res.Rewards {
		rewards.PerValidator[reward.ValidatorAddress] = reward.Reward
	}

	return rewards, nil
}

// simulationTxBytes encodes a transaction with one signer slot and an empty signature.
func simulationTxBytes(req SimulateRequest) ([]byte, error) {
	body := &txtypes.TxBody{
		Messages:      req.Messages,
		Memo:          req.Memo,
		TimeoutHeight: req.TimeoutHeight,
	}
	bodyBytes, err := body.Marshal()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	signerInfo := &txtypes.SignerInfo{
		ModeInfo: &txtypes.ModeInfo{
			Sum: &txtypes.ModeInfo_Single_{
				Single: &txtypes.ModeInfo_Single{Mode: signing.SignMode_SIGN_MODE_DIRECT},
			},
		},
		Sequence: req.Sequence,
	}
	if req.PubKey != nil {
		pubKeyAny, err := codectypes.NewAnyWithValue(req.PubKey)
		if err != nil {
			return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
		}
		signerInfo.PublicKey = pubKeyAny
	}

	authInfo := &txtypes.AuthInfo{
		SignerInfos: []*txtypes.SignerInfo{signerInfo},
		Fee:         &txtypes.Fee{},
	}
	authInfoBytes, err := authInfo.Marshal()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	raw := &txtypes.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{{}},
	}
	return raw.Marshal()
}

func isConnectionError(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return true
	}
	return false
}

// mapQueryError maps a gRPC failure to the pipeline taxonomy. NotFound becomes notFound.
func mapQueryError(err error, notFound *errorsmod.Error, subject string) error {
	if isConnectionError(err) {
		return errorsmod.Wrap(txerrors.ErrConnection, err.Error())
	}

	st := status.Convert(err)
	if st.Code() == codes.NotFound || strings.Contains(strings.ToLower(st.Message()), "not found") {
		return errorsmod.Wrap(notFound, subject)
	}

	return errorsmod.Wrapf(txerrors.ErrConnection, "%s: %s", subject, st.Message())
}

type paginatedResponse[T any] struct {
	data    []T
	nextKey []byte
}

func nextKey(res *query.PageResponse) []byte {
	if res == nil {
		return nil
	}
	return res.NextKey
}

func retrievePaginated[T any](
	ctx context.Context,
	c *GrpcConnector,
	noun string,
	fetchPage func(ctx context.Context, pageKey []byte) (*paginatedResponse[T], error),
) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	data := []T{}

	var pageKey []byte
	for {
		page, err := fetchPage(ctx, pageKey)
		if err != nil {
			return nil, err
		}

		data = append(data, page.data...)
		c.log.Debug(fmt.Sprintf("fetched page of %s", noun), zap.Int("num_in_page", len(page.data)), zap.Int("total_fetched", len(data)))

		if len(page.nextKey) == 0 {
			break
		}
		pageKey = page.nextKey
	}

	return data, nil
}
