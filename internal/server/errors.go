package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-nfter-kit/pkg/domain"
)

// ErrorResponse は API のエラー応答なのだ。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError はドメインのエラー種別を HTTP ステータスに対応付けるのだ。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotConnected):
		writeErrorCode(c, http.StatusUnauthorized, "NOT_CONNECTED", "wallet not connected")
	case errors.Is(err, domain.ErrSuperseded):
		writeErrorCode(c, http.StatusConflict, "SUPERSEDED", "superseded by a newer submission")
	case errors.Is(err, domain.ErrInvocation):
		writeErrorCode(c, http.StatusBadGateway, "INVOCATION_FAILED", err.Error())
	case errors.Is(err, domain.ErrUpload):
		writeErrorCode(c, http.StatusBadGateway, "UPLOAD_FAILED", err.Error())
	case errors.Is(err, domain.ErrTransaction):
		writeErrorCode(c, http.StatusBadGateway, "TRANSACTION_FAILED", err.Error())
	case errors.Is(err, domain.ErrPollingFailed):
		writeErrorCode(c, http.StatusBadGateway, "CONFIRMATION_FAILED", err.Error())
	case errors.Is(err, domain.ErrPollingExhausted):
		writeErrorCode(c, http.StatusGatewayTimeout, "CONFIRMATION_EXHAUSTED", err.Error())
	default:
		slog.Error("予期しないエラーなのだ", "error", err, "request_id", c.GetString(requestIDKey))
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}
