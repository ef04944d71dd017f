package broadcast

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	retry "github.com/avast/retry-go/v4"
	"github.com/cometbft/cometbft/crypto/tmhash"
	"go.uber.org/zap"

	txtypes "github.com/cosmos/cosmos-sdk/types/tx"

	"github.com/saiset-co/saiCosmosTx/internal/chain"
	"github.com/saiset-co/saiCosmosTx/internal/encoding"
	"github.com/saiset-co/saiCosmosTx/internal/metrics"
	"github.com/saiset-co/saiCosmosTx/internal/msgs"
	"github.com/saiset-co/saiCosmosTx/internal/signdoc"
	"github.com/saiset-co/saiCosmosTx/internal/signer"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

const (
	DefaultPollAttempts = 10
	DefaultPollDelay    = 3 * time.Second
)

type Connector interface {
	Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastResponse, error)
	GetTx(ctx context.Context, txHash string) (*chain.TxResponse, error)
}

// Result is the mempool outcome. Code 0 means accepted, not executed.
type Result struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
	Stage     txerrors.Stage
}

// TxResult is the on-chain execution outcome.
type TxResult struct {
	TxHash          string
	Height          int64
	Code            uint32
	Codespace       string
	RawLog          string
	GasWanted       int64
	GasUsed         int64
	Timestamp       string
	Stage           txerrors.Stage
	MessageKinds    []msgs.Kind
	UnknownTypeURLs []string
}

type Broadcaster struct {
	connector    Connector
	enc          *encoding.Config
	pollAttempts uint
	pollDelay    time.Duration
	log          *zap.Logger
}

func NewBroadcaster(connector Connector, enc *encoding.Config, pollAttempts uint, pollDelay time.Duration, log *zap.Logger) *Broadcaster {
	if pollAttempts == 0 {
		pollAttempts = DefaultPollAttempts
	}
	if pollDelay <= 0 {
		pollDelay = DefaultPollDelay
	}

	return &Broadcaster{
		connector:    connector,
		enc:          enc,
		pollAttempts: pollAttempts,
		pollDelay:    pollDelay,
		log:          log,
	}
}

// Assemble normalizes any input to a canonical encoded TxRaw. Single-signer direct and amino
// inputs have their signature verified before anything is returned.
func (b *Broadcaster) Assemble(input Input) ([]byte, error) {
	var (
		raw *txtypes.TxRaw
		err error
	)

	switch in := input.(type) {
	case RawTx:
		raw, err = fromRawTx(in)
	case Parts:
		raw, err = fromParts(in)
	case DirectSigned:
		raw, err = fromDirect(in)
	case AminoSigned:
		raw, err = b.fromAmino(in)
	default:
		return nil, errorsmod.Wrapf(txerrors.ErrInvalidRequest, "unknown broadcast input %T", input)
	}
	if err != nil {
		return nil, err
	}

	if err := validateRaw(raw); err != nil {
		return nil, err
	}

	txBytes, err := raw.Marshal()
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}

	switch in := input.(type) {
	case DirectSigned:
		if err := signer.VerifyTx(b.enc.TxConfig, txBytes, in.Payload.ChainID, in.Payload.AccountNumber); err != nil {
			return nil, err
		}
	case AminoSigned:
		doc, err := signdoc.ParseAminoDocument(b.enc.Amino, in.Document)
		if err != nil {
			return nil, err
		}
		if err := signer.VerifyTx(b.enc.TxConfig, txBytes, doc.ChainID, doc.AccountNumber); err != nil {
			return nil, err
		}
	}

	return txBytes, nil
}

// AssembleAndBroadcast submits the transaction in sync mode. It never retries: a failed
// submission has an unknown outcome and resubmitting could double-spend.
func (b *Broadcaster) AssembleAndBroadcast(ctx context.Context, input Input) (*Result, error) {
	txBytes, err := b.Assemble(input)
	if err != nil {
		metrics.Broadcasts.WithLabelValues(string(txerrors.StageNotSent)).Inc()
		return nil, err
	}

	result, err := b.submit(ctx, txBytes)
	if result != nil {
		metrics.Broadcasts.WithLabelValues(string(result.Stage)).Inc()
	}
	return result, err
}

func (b *Broadcaster) submit(ctx context.Context, txBytes []byte) (*Result, error) {
	localHash := TxHash(txBytes)
	log := b.log.With(zap.String("tx_hash", localHash))

	res, err := b.connector.Broadcast(ctx, txBytes)
	if err != nil {
		log.Error("broadcast outcome unknown", zap.Error(err))
		return &Result{TxHash: localHash, Stage: txerrors.StageUnknown}, errorsmod.Wrap(txerrors.ErrOutcomeUnknown, err.Error())
	}

	result := &Result{
		TxHash:    localHash,
		Code:      res.Code,
		Codespace: res.Codespace,
		RawLog:    res.RawLog,
		Stage:     txerrors.StageAccepted,
	}
	if res.TxHash != "" && !strings.EqualFold(res.TxHash, localHash) {
		log.Warn("node reported a different tx hash", zap.String("node_tx_hash", res.TxHash))
		result.TxHash = strings.ToUpper(res.TxHash)
	}

	if res.Code != 0 {
		result.Stage = txerrors.StageRejected
		log.Warn("transaction rejected by mempool",
			zap.Uint32("code", res.Code),
			zap.String("codespace", res.Codespace),
			zap.String("raw_log", res.RawLog))
		return result, errorsmod.Wrapf(txerrors.ErrBroadcast, "code %d (%s): %s", res.Code, res.Codespace, res.RawLog)
	}

	log.Info("transaction accepted by mempool")
	return result, nil
}

// GetTxResult looks up the execution outcome. A transaction that is not indexed yet fails with ErrResultNotFound.
func (b *Broadcaster) GetTxResult(ctx context.Context, txHash string) (*TxResult, error) {
	hash, err := normalizeHash(txHash)
	if err != nil {
		return nil, err
	}

	res, err := b.connector.GetTx(ctx, hash)
	if err != nil {
		if errors.Is(err, txerrors.ErrResultNotFound) {
			metrics.TxResults.WithLabelValues(string(txerrors.StageUnknown)).Inc()
		}
		return nil, err
	}

	result := &TxResult{
		TxHash:    strings.ToUpper(res.TxHash),
		Height:    res.Height,
		Code:      res.Code,
		Codespace: res.Codespace,
		RawLog:    res.RawLog,
		GasWanted: res.GasWanted,
		GasUsed:   res.GasUsed,
		Timestamp: res.Timestamp,
		Stage:     txerrors.StageExecuted,
	}
	if res.Code != 0 {
		result.Stage = txerrors.StageFailedOnChain
	}

	for _, anyMsg := range res.Messages {
		m, err := msgs.Decode(anyMsg)
		if err != nil {
			result.UnknownTypeURLs = append(result.UnknownTypeURLs, anyMsg.TypeUrl)
			continue
		}
		result.MessageKinds = append(result.MessageKinds, m.Kind())
	}

	metrics.TxResults.WithLabelValues(string(result.Stage)).Inc()
	return result, nil
}

// WaitTxResult polls GetTxResult while the transaction is not indexed. Other errors stop polling.
func (b *Broadcaster) WaitTxResult(ctx context.Context, txHash string) (*TxResult, error) {
	var result *TxResult

	err := retry.Do(func() error {
		var err error
		result, err = b.GetTxResult(ctx, txHash)
		return err
	},
		retry.Attempts(b.pollAttempts),
		retry.Delay(b.pollDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, txerrors.ErrResultNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			b.log.Debug("tx not indexed yet", zap.String("tx_hash", txHash), zap.Uint("attempt", n+1))
		}),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// TxHash is the upper-case hex SHA-256 of the encoded transaction, as the chain indexes it.
func TxHash(txBytes []byte) string {
	return strings.ToUpper(hex.EncodeToString(tmhash.Sum(txBytes)))
}

func normalizeHash(txHash string) (string, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(txHash), "0x"))
	if err != nil {
		return "", errorsmod.Wrapf(txerrors.ErrInvalidRequest, "tx hash %q: %s", txHash, err)
	}
	if len(bz) != tmhash.Size {
		return "", errorsmod.Wrapf(txerrors.ErrInvalidRequest, "tx hash must be %d bytes, got %d", tmhash.Size, len(bz))
	}
	return strings.ToUpper(hex.EncodeToString(bz)), nil
}

func fromRawTx(in RawTx) (*txtypes.TxRaw, error) {
	var raw txtypes.TxRaw
	if err := raw.Unmarshal(in.Bytes); err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrEncoding, "raw tx: %s", err)
	}
	return &raw, nil
}

func fromParts(in Parts) (*txtypes.TxRaw, error) {
	return &txtypes.TxRaw{
		BodyBytes:     in.BodyBytes,
		AuthInfoBytes: in.AuthInfoBytes,
		Signatures:    in.Signatures,
	}, nil
}

func fromDirect(in DirectSigned) (*txtypes.TxRaw, error) {
	if len(in.Signature) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "empty signature")
	}
	return &txtypes.TxRaw{
		BodyBytes:     in.Payload.BodyBytes,
		AuthInfoBytes: in.Payload.AuthInfoBytes,
		Signatures:    [][]byte{in.Signature},
	}, nil
}

func (b *Broadcaster) fromAmino(in AminoSigned) (*txtypes.TxRaw, error) {
	if len(in.Signature) == 0 {
		return nil, errorsmod.Wrap(txerrors.ErrInvalidRequest, "empty signature")
	}

	txBuilder, _, err := signdoc.RebuildAmino(b.enc.TxConfig, b.enc.Amino, in.Document, in.PubKey, in.Signature)
	if err != nil {
		return nil, err
	}

	txBytes, err := b.enc.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, errorsmod.Wrap(txerrors.ErrEncoding, err.Error())
	}
	return fromRawTx(RawTx{Bytes: txBytes})
}

// validateRaw checks that the parts decode and that every message is in the supported set.
func validateRaw(raw *txtypes.TxRaw) error {
	if len(raw.BodyBytes) == 0 || len(raw.AuthInfoBytes) == 0 {
		return errorsmod.Wrap(txerrors.ErrEncoding, "body and auth info are required")
	}

	var body txtypes.TxBody
	if err := body.Unmarshal(raw.BodyBytes); err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "body: %s", err)
	}
	if len(body.Messages) == 0 {
		return errorsmod.Wrap(txerrors.ErrEncoding, "no messages")
	}
	for i, anyMsg := range body.Messages {
		if _, err := msgs.Decode(anyMsg); err != nil {
			return errorsmod.Wrapf(err, "message %d", i)
		}
	}

	var authInfo txtypes.AuthInfo
	if err := authInfo.Unmarshal(raw.AuthInfoBytes); err != nil {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "auth info: %s", err)
	}
	if len(raw.Signatures) == 0 || len(raw.Signatures) != len(authInfo.SignerInfos) {
		return errorsmod.Wrapf(txerrors.ErrEncoding, "%d signatures for %d signers", len(raw.Signatures), len(authInfo.SignerInfos))
	}
	for i, sig := range raw.Signatures {
		if len(sig) == 0 {
			return errorsmod.Wrapf(txerrors.ErrEncoding, "signature %d is empty", i)
		}
	}

	return nil
}
