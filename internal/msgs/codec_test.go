package msgs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

func newAccAddress() string {
	return sdk.AccAddress(secp256k1.GenPrivKey().PubKey().Address()).String()
}

func newValAddress() string {
	return sdk.ValAddress(secp256k1.GenPrivKey().PubKey().Address()).String()
}

func allVariants() []Message {
	delegator := newAccAddress()
	validator := newValAddress()

	return []Message{
		BankSend{
			FromAddress: delegator,
			ToAddress:   newAccAddress(),
			Amount:      sdk.NewCoins(sdk.NewInt64Coin("uatom", 1000000)),
		},
		StakingDelegate{DelegatorAddress: delegator, ValidatorAddress: validator, Amount: sdk.NewInt64Coin("uatom", 25)},
		StakingUndelegate{DelegatorAddress: delegator, ValidatorAddress: validator, Amount: sdk.NewInt64Coin("uatom", 7)},
		StakingBeginRedelegate{
			DelegatorAddress:    delegator,
			ValidatorSrcAddress: validator,
			ValidatorDstAddress: newValAddress(),
			Amount:              sdk.NewInt64Coin("uatom", 3),
		},
		DistributionWithdrawDelegatorReward{DelegatorAddress: delegator, ValidatorAddress: validator},
		DistributionWithdrawValidatorCommission{ValidatorAddress: validator},
		GovVote{ProposalID: 42, Voter: delegator, Option: VoteOptionNoWithVeto},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, m := range allVariants() {
		m := m
		t.Run(string(m.Kind()), func(t *testing.T) {
			anyMsg, err := Encode(m)
			require.NoError(t, err)

			typeURL, err := TypeURL(m)
			require.NoError(t, err)
			assert.Equal(t, typeURL, anyMsg.TypeUrl)

			decoded, err := Decode(anyMsg)
			require.NoError(t, err)
			assert.Equal(t, m, decoded)
		})
	}
}

func TestEveryKindHasAVariant(t *testing.T) {
	seen := map[Kind]bool{}
	for _, m := range allVariants() {
		seen[m.Kind()] = true
	}
	for _, kind := range Kinds {
		assert.True(t, seen[kind], "missing variant for %s", kind)
	}
}

func TestWireTypeURLs(t *testing.T) {
	assert.Equal(t, "/cosmos.bank.v1beta1.MsgSend", TypeURLBankSend)
	assert.Equal(t, "/cosmos.staking.v1beta1.MsgDelegate", TypeURLStakingDelegate)
	assert.Equal(t, "/cosmos.staking.v1beta1.MsgUndelegate", TypeURLStakingUndelegate)
	assert.Equal(t, "/cosmos.staking.v1beta1.MsgBeginRedelegate", TypeURLStakingBeginRedelegate)
	assert.Equal(t, "/cosmos.distribution.v1beta1.MsgWithdrawDelegatorReward", TypeURLDistributionWithdrawDelegatorReward)
	assert.Equal(t, "/cosmos.distribution.v1beta1.MsgWithdrawValidatorCommission", TypeURLDistributionWithdrawValidatorCommission)
	assert.Equal(t, "/cosmos.gov.v1beta1.MsgVote", TypeURLGovVote)
}

func TestDecodeRejectsUnknownTypeURL(t *testing.T) {
	_, err := Decode(&codectypes.Any{TypeUrl: "/cosmos.bank.v1beta1.MsgMultiSend", Value: []byte{}})
	require.ErrorIs(t, err, txerrors.ErrUnsupportedMessageType)
	assert.True(t, txerrors.IsEncoding(err))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(&codectypes.Any{TypeUrl: TypeURLBankSend, Value: []byte{0xff, 0xff, 0xff}})
	require.ErrorIs(t, err, txerrors.ErrEncoding)
}

func TestEncodeRejectsMalformed(t *testing.T) {
	delegator := newAccAddress()
	validator := newValAddress()

	cases := map[string]Message{
		"bad sender":        BankSend{FromAddress: "nope", ToAddress: delegator, Amount: sdk.NewCoins(sdk.NewInt64Coin("uatom", 1))},
		"empty amount":      BankSend{FromAddress: delegator, ToAddress: newAccAddress()},
		"validator as acc":  StakingDelegate{DelegatorAddress: delegator, ValidatorAddress: delegator, Amount: sdk.NewInt64Coin("uatom", 1)},
		"zero delegation":   StakingDelegate{DelegatorAddress: delegator, ValidatorAddress: validator, Amount: sdk.NewInt64Coin("uatom", 0)},
		"same redelegation": StakingBeginRedelegate{DelegatorAddress: delegator, ValidatorSrcAddress: validator, ValidatorDstAddress: validator, Amount: sdk.NewInt64Coin("uatom", 1)},
		"zero proposal":     GovVote{Voter: delegator, Option: VoteOptionYes},
		"bad option":        GovVote{ProposalID: 1, Voter: delegator, Option: VoteOption(9)},
	}

	for name, m := range cases {
		m := m
		t.Run(name, func(t *testing.T) {
			_, err := Encode(m)
			require.ErrorIs(t, err, txerrors.ErrEncoding)
		})
	}
}

func TestEncodeAllRequiresMessages(t *testing.T) {
	_, err := EncodeAll(nil)
	require.ErrorIs(t, err, txerrors.ErrEncoding)
}

func TestCommissionSignerIsOperatorAccount(t *testing.T) {
	operator := secp256k1.GenPrivKey().PubKey().Address()
	m := DistributionWithdrawValidatorCommission{ValidatorAddress: sdk.ValAddress(operator).String()}
	assert.Equal(t, sdk.AccAddress(operator).String(), m.Signer())
}

func TestParseVoteOption(t *testing.T) {
	for input, expected := range map[string]VoteOption{
		"yes":                     VoteOptionYes,
		"NO":                      VoteOptionNo,
		"abstain":                 VoteOptionAbstain,
		"no-with-veto":            VoteOptionNoWithVeto,
		"VOTE_OPTION_NO_WITH_VETO": VoteOptionNoWithVeto,
	} {
		option, ok := ParseVoteOption(input)
		require.True(t, ok, input)
		assert.Equal(t, expected, option, input)
	}

	_, ok := ParseVoteOption("maybe")
	assert.False(t, ok)
}
