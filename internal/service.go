package internal

import (
	"context"
	"os"

	"github.com/saiset-co/sai-service-crud-plus/logger"
	"github.com/saiset-co/saiService"
	"go.uber.org/zap"

	"github.com/cosmos/cosmos-sdk/types"

	"github.com/saiset-co/saiCosmosTx/internal/broadcast"
	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/encoding"
	"github.com/saiset-co/saiCosmosTx/internal/fee"
	"github.com/saiset-co/saiCosmosTx/internal/metrics"
	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
	"github.com/saiset-co/saiCosmosTx/internal/signer"
)

type InternalService struct {
	Context *saiService.Context

	config      Config
	enc         *encoding.Config
	connector   chain.Connector
	estimator   *fee.Estimator
	builder     *signdoc.Builder
	signer      *signer.Adapter
	broadcaster *broadcast.Broadcaster
	senders     *senderQueue
	log         *zap.Logger
}

func (is *InternalService) Init() {
	is.log = logger.Logger
	if is.log == nil {
		is.log = zap.NewNop()
	}

	cfg, err := LoadConfig(is.Context)
	if err != nil {
		is.log.Fatal("invalid configuration", zap.Error(err))
	}

	setBech32Prefix(cfg.Bech32Prefix)
	is.enc = encoding.NewConfig()

	ctx := context.Background()
	connector, err := chain.Connect(ctx, cfg.GRPC, is.enc.Codec, chain.Options{
		DialTimeout:    cfg.DialTimeout,
		RequestTimeout: cfg.RequestTimeout,
	}, is.log)
	if err != nil {
		is.log.Fatal("unable to connect to chain", zap.String("grpc_url", cfg.GRPC), zap.Error(err))
	}

	if cfg.ChainID == "" {
		cfg.ChainID, err = connector.GetChainID(ctx)
		if err != nil {
			is.log.Fatal("unable to resolve chain id", zap.Error(err))
		}
	}

	keys := signer.NewKeystore(is.enc.Codec, is.log)
	if err := loadKeys(keys, cfg); err != nil {
		is.log.Fatal("unable to load keys", zap.Error(err))
	}

	if err := is.wire(cfg, connector, keys); err != nil {
		is.log.Fatal("unable to build pipeline", zap.Error(err))
	}

	metrics.Serve(cfg.MetricsListen, is.log)

	is.log.Info("service initialized",
		zap.String("chain_id", cfg.ChainID),
		zap.String("grpc_url", cfg.GRPC),
		zap.Int("keys", keys.Len()))
}

// wire builds the pipeline components on top of a connector.
func (is *InternalService) wire(cfg Config, connector chain.Connector, keys *signer.Keystore) error {
	if is.log == nil {
		is.log = zap.NewNop()
	}
	if is.enc == nil {
		is.enc = encoding.NewConfig()
	}

	estimator, err := fee.NewEstimator(connector, cfg.GasMultiplier, cfg.GasPrice, is.log.Named("fee"))
	if err != nil {
		return err
	}

	is.config = cfg
	is.connector = connector
	is.estimator = estimator
	is.builder = signdoc.NewBuilder(connector, estimator, is.enc, cfg.ChainID, is.log.Named("signdoc"))
	is.signer = signer.NewAdapter(keys, connector, is.enc, is.log.Named("signer"))
	is.broadcaster = broadcast.NewBroadcaster(connector, is.enc, cfg.PollAttempts, cfg.PollDelay, is.log.Named("broadcast"))
	is.senders = newSenderQueue()

	return nil
}

func loadKeys(keys *signer.Keystore, cfg Config) error {
	for _, path := range cfg.KeyFiles {
		armor, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := keys.ImportArmored(string(armor), cfg.KeyPassphrase); err != nil {
			return err
		}
	}

	for _, mnemonic := range cfg.Mnemonics {
		if _, err := keys.ImportMnemonic(mnemonic, cfg.HDPath); err != nil {
			return err
		}
	}

	return nil
}

func setBech32Prefix(prefix string) {
	validator := prefix + types.PrefixValidator + types.PrefixOperator
	consensus := prefix + types.PrefixValidator + types.PrefixConsensus

	config := types.GetConfig()
	config.SetBech32PrefixForAccount(prefix, prefix+types.PrefixPublic)
	config.SetBech32PrefixForValidator(validator, validator+types.PrefixPublic)
	config.SetBech32PrefixForConsensusNode(consensus, consensus+types.PrefixPublic)
}
