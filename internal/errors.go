package internal

import (
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/saiset-co/saiCosmosTx/internal/model"
	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, txerrors.ErrInvalidRequest),
		errors.Is(err, txerrors.ErrEncoding),
		errors.Is(err, txerrors.ErrUnsupportedMessageType),
		errors.Is(err, txerrors.ErrSchemeMismatch),
		errors.Is(err, txerrors.ErrAccountMismatch),
		errors.Is(err, txerrors.ErrInvalidSignature),
		errors.Is(err, txerrors.ErrSimulation):
		return http.StatusBadRequest
	case errors.Is(err, txerrors.ErrAccountNotFound),
		errors.Is(err, txerrors.ErrKeyNotFound),
		errors.Is(err, txerrors.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, txerrors.ErrBroadcast):
		return http.StatusConflict
	case errors.Is(err, txerrors.ErrConnection),
		errors.Is(err, txerrors.ErrOutcomeUnknown):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail builds the handler return values for err. txHash is set once a transaction was submitted.
func (is *InternalService) fail(handler string, err error, txHash string) (interface{}, int, error) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	status := httpStatus(err)

	res := model.ErrorResponse{
		Error:     err.Error(),
		Codespace: codespace,
		Code:      code,
		Stage:     string(txerrors.StageOf(err)),
		TxHash:    txHash,
	}

	if status == http.StatusInternalServerError {
		is.log.Error("handler failed", zap.String("handler", handler), zap.Error(err))
	} else {
		is.log.Debug("handler rejected request", zap.String("handler", handler), zap.Error(err))
	}

	return res, status, err
}
