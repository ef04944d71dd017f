package internal

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cast"

	"github.com/saiset-co/saiCosmosTx/internal/broadcast"
	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/signer"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
	"github.com/saiset-co/saiCosmosTx/utils"
)

// ConfigSource is satisfied by *saiService.Context.
type ConfigSource interface {
	GetConfig(path string, def interface{}) interface{}
}

type Config struct {
	GRPC           string
	ChainID        string
	Bech32Prefix   string
	DialTimeout    time.Duration
	RequestTimeout time.Duration

	GasMultiplier string
	GasPrice      string

	PollAttempts uint
	PollDelay    time.Duration

	KeyFiles      []string
	KeyPassphrase string
	Mnemonics     []string
	HDPath        string

	MetricsListen string
}

func LoadConfig(src ConfigSource) (Config, error) {
	cfg := Config{
		GRPC:          cast.ToString(src.GetConfig("chain.grpc", "")),
		ChainID:       cast.ToString(src.GetConfig("chain.chain_id", "")),
		Bech32Prefix:  cast.ToString(src.GetConfig("chain.bech32_prefix", "cosmos")),
		GasMultiplier: cast.ToString(src.GetConfig("fee.gas_multiplier", fee.DefaultGasMultiplier)),
		GasPrice:      cast.ToString(src.GetConfig("fee.gas_price", fee.DefaultGasPrice)),
		KeyFiles:      cast.ToStringSlice(src.GetConfig("keys.files", []string{})),
		KeyPassphrase: cast.ToString(src.GetConfig("keys.passphrase", "")),
		Mnemonics:     cast.ToStringSlice(src.GetConfig("keys.mnemonics", []string{})),
		HDPath:        cast.ToString(src.GetConfig("keys.hd_path", signer.DefaultHDPath)),
		MetricsListen: cast.ToString(src.GetConfig("metrics.listen", "")),
	}

	if cfg.GRPC == "" {
		return cfg, errorsmod.Wrap(txerrors.ErrConfig, "chain.grpc is required")
	}
	if cfg.Bech32Prefix == "" {
		return cfg, errorsmod.Wrap(txerrors.ErrConfig, "chain.bech32_prefix is empty")
	}

	var err error
	if cfg.DialTimeout, err = duration(src, "chain.dial_timeout", "10s"); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = duration(src, "chain.request_timeout", "30s"); err != nil {
		return cfg, err
	}
	if cfg.PollDelay, err = duration(src, "broadcast.poll_delay", broadcast.DefaultPollDelay.String()); err != nil {
		return cfg, err
	}

	cfg.PollAttempts, err = utils.IfaceToUint(src.GetConfig("broadcast.poll_attempts", broadcast.DefaultPollAttempts))
	if err != nil {
		return cfg, errorsmod.Wrapf(txerrors.ErrConfig, "broadcast.poll_attempts: %s", err)
	}

	return cfg, nil
}

// duration reads "10s"-style values. Bare numbers are seconds.
func duration(src ConfigSource, path, def string) (time.Duration, error) {
	value := src.GetConfig(path, def)

	switch v := value.(type) {
	case int, int64, float64:
		return time.Duration(cast.ToFloat64(v) * float64(time.Second)), nil
	}

	d, err := cast.ToDurationE(value)
	if err != nil || d < 0 {
		return 0, errorsmod.Wrapf(txerrors.ErrConfig, "%s: invalid duration %v", path, value)
	}
	return d, nil
}
