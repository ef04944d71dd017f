package model

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
	Stage     string `json:"stage"`
	TxHash    string `json:"tx_hash,omitempty"`
}

type FeeResponse struct {
	GasUsed  uint64 `json:"gas_used"`
	GasLimit uint64 `json:"gas_limit"`
	Amount   string `json:"amount"`
}

type SignResponse struct {
	Scheme      string `json:"scheme"`
	Signature   []byte `json:"signature"`
	SignedBytes []byte `json:"signed_bytes"`
	PubKey      []byte `json:"pub_key"`
}

type BroadcastResponse struct {
	TxHash    string      `json:"txhash"`
	Code      uint32      `json:"code"`
	Codespace string      `json:"codespace,omitempty"`
	RawLog    string      `json:"raw_log,omitempty"`
	Stage     string      `json:"stage"`
	Result    *TxResponse `json:"result,omitempty"`
}

type TxResponse struct {
	Height          int64    `json:"height"`
	Txhash          string   `json:"txhash"`
	Codespace       string   `json:"codespace,omitempty"`
	Code            uint32   `json:"code"`
	RawLog          string   `json:"raw_log"`
	GasWanted       int64    `json:"gas_wanted"`
	GasUsed         int64    `json:"gas_used"`
	Timestamp       string   `json:"timestamp,omitempty"`
	Stage           string   `json:"stage"`
	Messages        []string `json:"messages"`
	UnknownMessages []string `json:"unknown_messages,omitempty"`
}

type AccountResponse struct {
	Address       string `json:"address"`
	PubKey        []byte `json:"pub_key,omitempty"`
	AccountNumber uint64 `json:"account_number"`
	Sequence      uint64 `json:"sequence"`
}

type BalancesResponse struct {
	Address  string    `json:"address"`
	Balances sdk.Coins `json:"balances"`
}

type Delegation struct {
	ValidatorAddress string   `json:"validator_address"`
	Shares           string   `json:"shares"`
	Balance          sdk.Coin `json:"balance"`
}

type DelegationsResponse struct {
	Address     string       `json:"address"`
	Delegations []Delegation `json:"delegations"`
}

type RewardsResponse struct {
	Address      string                  `json:"address"`
	Total        sdk.DecCoins            `json:"total"`
	PerValidator map[string]sdk.DecCoins `json:"per_validator"`
}
