package encoding

import (
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	vestingtypes "github.com/cosmos/cosmos-sdk/x/auth/vesting/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	distributiontypes "github.com/cosmos/cosmos-sdk/x/distribution/types"
	govv1beta1 "github.com/cosmos/cosmos-sdk/x/gov/types/v1beta1"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
)

// SignModes are the sign modes the pipeline produces and accepts. Direct is the default.
var SignModes = []signing.SignMode{
	signing.SignMode_SIGN_MODE_DIRECT,
	signing.SignMode_SIGN_MODE_LEGACY_AMINO_JSON,
}

// Config bundles every codec the pipeline needs. All components share one instance.
type Config struct {
	InterfaceRegistry codectypes.InterfaceRegistry
	Codec             *codec.ProtoCodec
	Amino             *codec.LegacyAmino
	TxConfig          client.TxConfig
}

// NewConfig registers the account, crypto and message types used by the pipeline.
func NewConfig() *Config {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	amino := codec.NewLegacyAmino()

	std.RegisterInterfaces(interfaceRegistry)
	std.RegisterLegacyAminoCodec(amino)

	authtypes.RegisterInterfaces(interfaceRegistry)
	authtypes.RegisterLegacyAminoCodec(amino)
	vestingtypes.RegisterInterfaces(interfaceRegistry)
	vestingtypes.RegisterLegacyAminoCodec(amino)

	banktypes.RegisterInterfaces(interfaceRegistry)
	banktypes.RegisterLegacyAminoCodec(amino)
	stakingtypes.RegisterInterfaces(interfaceRegistry)
	stakingtypes.RegisterLegacyAminoCodec(amino)
	distributiontypes.RegisterInterfaces(interfaceRegistry)
	distributiontypes.RegisterLegacyAminoCodec(amino)
	govv1beta1.RegisterInterfaces(interfaceRegistry)
	govv1beta1.RegisterLegacyAminoCodec(amino)

	cdc := codec.NewProtoCodec(interfaceRegistry)

	return &Config{
		InterfaceRegistry: interfaceRegistry,
		Codec:             cdc,
		Amino:             amino,
		TxConfig:          authtx.NewTxConfig(cdc, SignModes),
	}
}
