package fee

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/metrics"
	"github.com/saiset-co/saiCosmosTx/internal/msgs"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

const (
	DefaultGasMultiplier = "1.4"
	DefaultGasPrice      = "0.025uatom"
)

type Simulator interface {
	Simulate(ctx context.Context, req chain.SimulateRequest) (uint64, error)
}

// Signer is the signing state a simulation runs with.
type Signer struct {
	PubKey   cryptotypes.PubKey
	Sequence uint64
}

type Estimate struct {
	GasUsed uint64
	Fee     Fee
}

type Estimator struct {
	simulator  Simulator
	multiplier math.LegacyDec
	gasPrice   sdk.DecCoin
	log        *zap.Logger
}

// NewEstimator parses the multiplier (a decimal ≥ 1) and the gas price (e.g. "0.025uatom").
func NewEstimator(simulator Simulator, multiplier, gasPrice string, log *zap.Logger) (*Estimator, error) {
	mult, err := math.LegacyNewDecFromStr(multiplier)
	if err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrConfig, "gas multiplier %q: %s", multiplier, err)
	}
	if mult.LT(math.LegacyOneDec()) {
		return nil, errorsmod.Wrapf(txerrors.ErrConfig, "gas multiplier %s is below 1", mult)
	}

	price, err := sdk.ParseDecCoin(gasPrice)
	if err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrConfig, "gas price %q: %s", gasPrice, err)
	}

	return &Estimator{
		simulator:  simulator,
		multiplier: mult,
		gasPrice:   price,
		log:        log,
	}, nil
}

func (e *Estimator) GasPrice() sdk.DecCoin {
	return e.gasPrice
}

// EstimateFee simulates the messages and prices the result. A failed simulation is returned as is.
func (e *Estimator) EstimateFee(ctx context.Context, messages []msgs.Message, memo string, signer Signer) (*Estimate, error) {
	encoded, err := msgs.EncodeAll(messages)
	if err != nil {
		return nil, err
	}

	return e.EstimateEncoded(ctx, chain.SimulateRequest{
		Messages: encoded,
		Memo:     memo,
		PubKey:   signer.PubKey,
		Sequence: signer.Sequence,
	})
}

// EstimateEncoded is EstimateFee for messages that are already in their Any form.
func (e *Estimator) EstimateEncoded(ctx context.Context, req chain.SimulateRequest) (*Estimate, error) {
	if len(req.Messages) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, "no messages")
	}

	gasUsed, err := e.simulator.Simulate(ctx, req)
	metrics.Simulations.WithLabelValues(metrics.ResultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	gasLimit := e.GasLimit(gasUsed)
	estimate := &Estimate{
		GasUsed: gasUsed,
		Fee: Fee{
			GasLimit: gasLimit,
			Amount:   e.Amount(gasLimit),
		},
	}

	e.log.Debug("estimated fee",
		zap.Uint64("gas_used", gasUsed),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("amount", estimate.Fee.Amount.String()))

	return estimate, nil
}

// GasLimit is ceil(gasUsed × multiplier).
func (e *Estimator) GasLimit(gasUsed uint64) uint64 {
	return e.multiplier.MulInt(math.NewIntFromUint64(gasUsed)).Ceil().TruncateInt().Uint64()
}

// Amount is ceil(gasLimit × gas price) in the gas price denom.
func (e *Estimator) Amount(gasLimit uint64) sdk.Coins {
	amount := e.gasPrice.Amount.MulInt(math.NewIntFromUint64(gasLimit)).Ceil().TruncateInt()
	return sdk.NewCoins(sdk.NewCoin(e.gasPrice.Denom, amount))
}
