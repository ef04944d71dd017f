package txerrors

import (
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
)

func TestStageOf(t *testing.T) {
	cases := map[string]struct {
		err   error
		stage Stage
	}{
		"nil":            {nil, StageAccepted},
		"rejected":       {errorsmod.Wrap(ErrBroadcast, "code 32"), StageRejected},
		"not indexed":    {errorsmod.Wrap(ErrResultNotFound, "tx ABC"), StageUnknown},
		"connection cut": {errorsmod.Wrap(ErrOutcomeUnknown, "eof"), StageUnknown},
		"simulation":     {errorsmod.Wrap(ErrSimulation, "out of gas"), StageNotSent},
		"signature":      {ErrInvalidSignature, StageNotSent},
		"plain":          {errors.New("boom"), StageNotSent},
		"fmt wrapped":    {fmt.Errorf("submit: %w", ErrBroadcast), StageRejected},
	}

	for name, tc := range cases {
		assert.Equal(t, tc.stage, StageOf(tc.err), name)
	}
}

func TestIsEncoding(t *testing.T) {
	assert.True(t, IsEncoding(errorsmod.Wrap(ErrEncoding, "bad amount")))
	assert.True(t, IsEncoding(errorsmod.Wrap(ErrUnsupportedMessageType, "/cosmos.bank.v1beta1.MsgMultiSend")))
	assert.False(t, IsEncoding(ErrSimulation))
	assert.False(t, IsEncoding(nil))
}

func TestABCIInfo(t *testing.T) {
	codespace, code, _ := errorsmod.ABCIInfo(errorsmod.Wrap(ErrKeyNotFound, "cosmos1..."), false)
	assert.Equal(t, Codespace, codespace)
	assert.Equal(t, uint32(7), code)
}
