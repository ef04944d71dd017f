package msgs

import (
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Kind names a supported message variant.
type Kind string

const (
	KindBankSend                                Kind = "bank_send"
	KindStakingDelegate                         Kind = "staking_delegate"
	KindStakingUndelegate                       Kind = "staking_undelegate"
	KindStakingBeginRedelegate                  Kind = "staking_begin_redelegate"
	KindDistributionWithdrawDelegatorReward     Kind = "distribution_withdraw_delegator_reward"
	KindDistributionWithdrawValidatorCommission Kind = "distribution_withdraw_validator_commission"
	KindGovVote                                 Kind = "gov_vote"
)

// Kinds lists every supported variant.
var Kinds = []Kind{
	KindBankSend,
	KindStakingDelegate,
	KindStakingUndelegate,
	KindStakingBeginRedelegate,
	KindDistributionWithdrawDelegatorReward,
	KindDistributionWithdrawValidatorCommission,
	KindGovVote,
}

// Message is the closed set of protocol messages the pipeline can put in a transaction.
// Only the types in this package implement it.
type Message interface {
	Kind() Kind
	// Signer is the bech32 address that must sign a transaction carrying this message.
	Signer() string

	isMessage()
}

type BankSend struct {
	FromAddress string
	ToAddress   string
	Amount      sdk.Coins
}

type StakingDelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           sdk.Coin
}

type StakingUndelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           sdk.Coin
}

type StakingBeginRedelegate struct {
	DelegatorAddress    string
	ValidatorSrcAddress string
	ValidatorDstAddress string
	Amount              sdk.Coin
}

type DistributionWithdrawDelegatorReward struct {
	DelegatorAddress string
	ValidatorAddress string
}

// DistributionWithdrawValidatorCommission is signed by the validator operator's account key.
type DistributionWithdrawValidatorCommission struct {
	ValidatorAddress string
}

type GovVote struct {
	ProposalID uint64
	Voter      string
	Option     VoteOption
}

func (BankSend) Kind() Kind               { return KindBankSend }
func (StakingDelegate) Kind() Kind        { return KindStakingDelegate }
func (StakingUndelegate) Kind() Kind      { return KindStakingUndelegate }
func (StakingBeginRedelegate) Kind() Kind { return KindStakingBeginRedelegate }
func (DistributionWithdrawDelegatorReward) Kind() Kind {
	return KindDistributionWithdrawDelegatorReward
}
func (DistributionWithdrawValidatorCommission) Kind() Kind {
	return KindDistributionWithdrawValidatorCommission
}
func (GovVote) Kind() Kind { return KindGovVote }

func (m BankSend) Signer() string                            { return m.FromAddress }
func (m StakingDelegate) Signer() string                     { return m.DelegatorAddress }
func (m StakingUndelegate) Signer() string                   { return m.DelegatorAddress }
func (m StakingBeginRedelegate) Signer() string              { return m.DelegatorAddress }
func (m DistributionWithdrawDelegatorReward) Signer() string { return m.DelegatorAddress }
func (m DistributionWithdrawValidatorCommission) Signer() string {
	valAddr, err := sdk.ValAddressFromBech32(m.ValidatorAddress)
	if err != nil {
		return ""
	}
	return sdk.AccAddress(valAddr).String()
}
func (m GovVote) Signer() string { return m.Voter }

func (BankSend) isMessage()                                {}
func (StakingDelegate) isMessage()                         {}
func (StakingUndelegate) isMessage()                       {}
func (StakingBeginRedelegate) isMessage()                  {}
func (DistributionWithdrawDelegatorReward) isMessage()     {}
func (DistributionWithdrawValidatorCommission) isMessage() {}
func (GovVote) isMessage()                                 {}

// VoteOption mirrors the governance vote options accepted by MsgVote.
type VoteOption int32

const (
	VoteOptionUnspecified VoteOption = 0
	VoteOptionYes         VoteOption = 1
	VoteOptionAbstain     VoteOption = 2
	VoteOptionNo          VoteOption = 3
	VoteOptionNoWithVeto  VoteOption = 4
)

var voteOptionNames = map[VoteOption]string{
	VoteOptionYes:        "yes",
	VoteOptionAbstain:    "abstain",
	VoteOptionNo:         "no",
	VoteOptionNoWithVeto: "no_with_veto",
}

func (o VoteOption) String() string {
	if name, ok := voteOptionNames[o]; ok {
		return name
	}
	return "unspecified"
}

// ParseVoteOption accepts "yes", "no", "abstain", "no_with_veto" and the VOTE_OPTION_* enum names.
func ParseVoteOption(s string) (VoteOption, bool) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "VOTE_OPTION_"))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for option, name := range voteOptionNames {
		if name == normalized {
			return option, true
		}
	}
	return VoteOptionUnspecified, false
}
