package chain

import (
	"context"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Connector is the read, simulate and submit surface of a chain node.
// Every call is a live query. Nothing is cached, so sequence and account
// number always reflect chain state at the moment of the call.
type Connector interface {
	GetAccount(ctx context.Context, address string) (*Account, error)
	GetChainID(ctx context.Context) (string, error)
	Simulate(ctx context.Context, req SimulateRequest) (uint64, error)
	Broadcast(ctx context.Context, txBytes []byte) (*BroadcastResponse, error)
	GetTx(ctx context.Context, txHash string) (*TxResponse, error)

	GetBalances(ctx context.Context, address string) (sdk.Coins, error)
	GetDelegations(ctx context.Context, delegator string) ([]Delegation, error)
	GetRewards(ctx context.Context, delegator string) (*Rewards, error)

	Close() error
}

// Account is the chain-authoritative signing state of an address.
type Account struct {
	Address       string
	PubKey        cryptotypes.PubKey
	AccountNumber uint64
	Sequence      uint64
}

// SimulateRequest describes a candidate transaction for a dry run.
type SimulateRequest struct {
	Messages      []*codectypes.Any
	Memo          string
	PubKey        cryptotypes.PubKey
	Sequence      uint64
	TimeoutHeight uint64
}

// BroadcastResponse is the mempool (CheckTx) verdict for a submitted transaction.
type BroadcastResponse struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
	GasWanted int64
}

// TxResponse is the execution outcome of an included transaction.
type TxResponse struct {
	TxHash    string
	Height    int64
	Code      uint32
	Codespace string
	RawLog    string
	GasWanted int64
	GasUsed   int64
	Timestamp string
	Messages  []*codectypes.Any
}

type Delegation struct {
	ValidatorAddress string
	Shares           sdk.Dec
	Balance          sdk.Coin
}

type Rewards struct {
	Total        sdk.DecCoins
	PerValidator map[string]sdk.DecCoins
}
