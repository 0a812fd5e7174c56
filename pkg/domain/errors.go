package domain

import (
	"errors"
	"fmt"
)

// パイプラインの各工程が返すエラー種別です。呼び出し側は errors.Is で判定します。
var (
	ErrValidation       = errors.New("validation error")
	ErrNotConnected     = errors.New("wallet not connected")
	ErrInvocation       = errors.New("model invocation failed")
	ErrUpload           = errors.New("blob upload failed")
	ErrTransaction      = errors.New("transaction failed")
	ErrPollingExhausted = errors.New("mint confirmation retries exhausted")
	ErrPollingFailed    = errors.New("mint confirmation failed")
	ErrSuperseded       = errors.New("superseded by a newer submission")
)

// Validationf は ErrValidation をラップしたエラーを生成します。
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
