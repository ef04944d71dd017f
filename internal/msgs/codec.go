package msgs

import (
	errorsmod "cosmossdk.io/errors"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distributiontypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	govv1beta1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1beta1"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

// Wire type URLs, one per variant.
var (
	TypeURLBankSend                                = sdk.MsgTypeURL(&banktypes.MsgSend{})
	TypeURLStakingDelegate                         = sdk.MsgTypeURL(&stakingtypes.MsgDelegate{})
	TypeURLStakingUndelegate                       = sdk.MsgTypeURL(&stakingtypes.MsgUndelegate{})
	TypeURLStakingBeginRedelegate                  = sdk.MsgTypeURL(&stakingtypes.MsgBeginRedelegate{})
	TypeURLDistributionWithdrawDelegatorReward     = sdk.MsgTypeURL(&distributiontypes.MsgWithdrawDelegatorReward{})
	TypeURLDistributionWithdrawValidatorCommission = sdk.MsgTypeURL(&distributiontypes.MsgWithdrawValidatorCommission{})
	TypeURLGovVote                                 = sdk.MsgTypeURL(&govv1beta1.MsgVote{})
)

// TypeURL returns the wire type URL of a variant.
func TypeURL(m Message) (string, error) {
	switch m.(type) {
	case BankSend, *BankSend:
		return TypeURLBankSend, nil
	case StakingDelegate, *StakingDelegate:
		return TypeURLStakingDelegate, nil
	case StakingUndelegate, *StakingUndelegate:
		return TypeURLStakingUndelegate, nil
	case StakingBeginRedelegate, *StakingBeginRedelegate:
		return TypeURLStakingBeginRedelegate, nil
	case DistributionWithdrawDelegatorReward, *DistributionWithdrawDelegatorReward:
		return TypeURLDistributionWithdrawDelegatorReward, nil
	case DistributionWithdrawValidatorCommission, *DistributionWithdrawValidatorCommission:
		return TypeURLDistributionWithdrawValidatorCommission, nil
	case GovVote, *GovVote:
		return TypeURLGovVote, nil
	}
	return "", errorsmod.Wrapf(txerrors.ErrUnsupportedMessageType, "%T", m)
}

// Encode converts a variant into its canonical Any representation.
func Encode(m Message) (*codectypes.Any, error) {
	msg, err := ToSDK(m)
	if err != nil {
		return nil, err
	}

	anyMsg, err := codectypes.NewAnyWithValue(msg)
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	return anyMsg, nil
}

// EncodeAll encodes a message list, preserving order.
func EncodeAll(messages []Message) ([]*codectypes.Any, error) {
	if len(messages) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "no messages")
	}

	anys := make([]*codectypes.Any, 0, len(messages))
	for i, m := range messages {
		anyMsg, err := Encode(m)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "message %d", i)
		}
		anys = append(anys, anyMsg)
	}

	return anys, nil
}

// Decode converts an Any back into a variant. Unknown type URLs are rejected.
func Decode(anyMsg *codectypes.Any) (Message, error) {
	if anyMsg == nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "nil message")
	}

	var msg sdk.Msg
	switch anyMsg.TypeUrl {
	case TypeURLBankSend:
		msg = &banktypes.MsgSend{}
	case TypeURLStakingDelegate:
		msg = &stakingtypes.MsgDelegate{}
	case TypeURLStakingUndelegate:
		msg = &stakingtypes.MsgUndelegate{}
	case TypeURLStakingBeginRedelegate:
		msg = &stakingtypes.MsgBeginRedelegate{}
	case TypeURLDistributionWithdrawDelegatorReward:
		msg = &distributiontypes.MsgWithdrawDelegatorReward{}
	case TypeURLDistributionWithdrawValidatorCommission:
		msg = &distributiontypes.MsgWithdrawValidatorCommission{}
	case TypeURLGovVote:
		msg = &govv1beta1.MsgVote{}
	default:
		return nil, errorsmod.Wrap(txerrors.ErrUnsupportedMessageType, anyMsg.TypeUrl)
	}

	unmarshaler, ok := msg.(interface{ Unmarshal([]byte) error })
	if !ok {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "%s cannot be unmarshaled", anyMsg.TypeUrl)
	}
	if err := unmarshaler.Unmarshal(anyMsg.Value); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "%s: %s", anyMsg.TypeUrl, err)
	}

	return FromSDK(msg)
}

// ToSDK validates a variant and converts it to the matching cosmos-sdk message.
func ToSDK(m Message) (sdk.Msg, error) {
	switch v := m.(type) {
	case *BankSend:
		return ToSDK(*v)
	case *StakingDelegate:
		return ToSDK(*v)
	case *StakingUndelegate:
		return ToSDK(*v)
	case *StakingBeginRedelegate:
		return ToSDK(*v)
	case *DistributionWithdrawDelegatorReward:
		return ToSDK(*v)
	case *DistributionWithdrawValidatorCommission:
		return ToSDK(*v)
	case *GovVote:
		return ToSDK(*v)

	case BankSend:
		if err := validateAccount("from_address", v.FromAddress); err != nil {
			return nil, err
		}
		if err := validateAccount("to_address", v.ToAddress); err != nil {
			return nil, err
		}
		if v.Amount.Empty() {
			return nil, errorsmod.Wrap(txerrors.ErrEncoding, "amount: empty")
		}
		if err := v.Amount.Validate(); err != nil {
			return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "amount: %s", err)
		}
		return &banktypes.MsgSend{
			FromAddress: v.FromAddress,
			ToAddress:   v.ToAddress,
			Amount:      v.Amount,
		}, nil

	case StakingDelegate:
		if err := validateDelegation(v.DelegatorAddress, v.ValidatorAddress, v.Amount); err != nil {
			return nil, err
		}
		return &stakingtypes.MsgDelegate{
			DelegatorAddress: v.DelegatorAddress,
			ValidatorAddress: v.ValidatorAddress,
			Amount:           v.Amount,
		}, nil

	case StakingUndelegate:
		if err := validateDelegation(v.DelegatorAddress, v.ValidatorAddress, v.Amount); err != nil {
			return nil, err
		}
		return &stakingtypes.MsgUndelegate{
			DelegatorAddress: v.DelegatorAddress,
			ValidatorAddress: v.ValidatorAddress,
			Amount:           v.Amount,
		}, nil

	case StakingBeginRedelegate:
		if err := validateDelegation(v.DelegatorAddress, v.ValidatorSrcAddress, v.Amount); err != nil {
			return nil, err
		}
		if err := validateValidator("validator_dst_address", v.ValidatorDstAddress); err != nil {
			return nil, err
		}
		if v.ValidatorSrcAddress == v.ValidatorDstAddress {
			return nil, errorsmod.Wrap(txerrors.ErrEncoding, "source and destination validators are the same")
		}
		return &stakingtypes.MsgBeginRedelegate{
			DelegatorAddress:    v.DelegatorAddress,
			ValidatorSrcAddress: v.ValidatorSrcAddress,
			ValidatorDstAddress: v.ValidatorDstAddress,
			Amount:              v.Amount,
		}, nil

	case DistributionWithdrawDelegatorReward:
		if err := validateAccount("delegator_address", v.DelegatorAddress); err != nil {
			return nil, err
		}
		if err := validateValidator("validator_address", v.ValidatorAddress); err != nil {
			return nil, err
		}
		return &distributiontypes.MsgWithdrawDelegatorReward{
			DelegatorAddress: v.DelegatorAddress,
			ValidatorAddress: v.ValidatorAddress,
		}, nil

	case DistributionWithdrawValidatorCommission:
		if err := validateValidator("validator_address", v.ValidatorAddress); err != nil {
			return nil, err
		}
		return &distributiontypes.MsgWithdrawValidatorCommission{
			ValidatorAddress: v.ValidatorAddress,
		}, nil

	case GovVote:
		if v.ProposalID == 0 {
			return nil, errorsmod.Wrap(txerrors.ErrEncoding, "proposal_id: must be positive")
		}
		if err := validateAccount("voter", v.Voter); err != nil {
			return nil, err
		}
		if _, ok := voteOptionNames[v.Option]; !ok {
			return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "option: invalid vote option %d", v.Option)
		}
		return &govv1beta1.MsgVote{
			ProposalId: v.ProposalID,
			Voter:      v.Voter,
			Option:     govv1beta1.VoteOption(v.Option),
		}, nil
	}

	return nil, errorsmod.Wrapf(txerrors.ErrUnsupportedMessageType, "%T", m)
}

// FromSDK converts a cosmos-sdk message back into a variant. Messages outside the set are rejected.
func FromSDK(msg sdk.Msg) (Message, error) {
	switch v := msg.(type) {
	case *banktypes.MsgSend:
		return BankSend{FromAddress: v.FromAddress, ToAddress: v.ToAddress, Amount: v.Amount}, nil
	case *stakingtypes.MsgDelegate:
		return StakingDelegate{DelegatorAddress: v.DelegatorAddress, ValidatorAddress: v.ValidatorAddress, Amount: v.Amount}, nil
	case *stakingtypes.MsgUndelegate:
		return StakingUndelegate{DelegatorAddress: v.DelegatorAddress, ValidatorAddress: v.ValidatorAddress, Amount: v.Amount}, nil
	case *stakingtypes.MsgBeginRedelegate:
		return StakingBeginRedelegate{
			DelegatorAddress:    v.DelegatorAddress,
			ValidatorSrcAddress: v.ValidatorSrcAddress,
			ValidatorDstAddress: v.ValidatorDstAddress,
			Amount:              v.Amount,
		}, nil
	case *distributiontypes.MsgWithdrawDelegatorReward:
		return DistributionWithdrawDelegatorReward{DelegatorAddress: v.DelegatorAddress, ValidatorAddress: v.ValidatorAddress}, nil
	case *distributiontypes.MsgWithdrawValidatorCommission:
		return DistributionWithdrawValidatorCommission{ValidatorAddress: v.ValidatorAddress}, nil
	case *govv1beta1.MsgVote:
		return GovVote{ProposalID: v.ProposalId, Voter: v.Voter, Option: VoteOption(v.Option)}, nil
	}

	return nil, errorsmod.Wrapf(txerrors.ErrUnsupportedMessageType, "%s", sdk.MsgTypeURL(msg))
}

// ToSDKAll converts a message list, preserving order.
func ToSDKAll(messages []Message) ([]sdk.Msg, error) {
	if len(messages) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "no messages")
	}

	sdkMsgs := make([]sdk.Msg, 0, len(messages))
	for i, m := range messages {
		msg, err := ToSDK(m)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "message %d", i)
		}
		sdkMsgs = append(sdkMsgs, msg)
	}

	return sdkMsgs, nil
}

func validateAccount(field, address string) error {
	if _, err := sdk.AccAddressFromBech32(address); err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "%s: %s", field, err)
	}
	return nil
}

func validateValidator(field, address string) error {
	if _, err := sdk.ValAddressFromBech32(address); err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "%s: %s", field, err)
	}
	return nil
}

func validateDelegation(delegator, validator string, amount sdk.Coin) error {
	if err := validateAccount("delegator_address", delegator); err != nil {
		return err
	}
	if err := validateValidator("validator_address", validator); err != nil {
		return err
	}
	if err := amount.Validate(); err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "amount: %s", err)
	}
	if !amount.IsPositive() {
		return errorsmod.Wrap(txerrors.ErrEncoding, "amount: must be positive")
	}
	return nil
}
