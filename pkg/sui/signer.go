package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	"github.com/shouni/go-http-kit/httpkit"
)

// Signer はトランザクションに署名して送信し、受理されたダイジェストを返します。
type Signer interface {
	SignAndExecute(ctx context.Context, tx *Transaction) (string, error)
}

// WalletBridge は秘密鍵を持つ外部のウォレットブリッジへ署名を依頼する Signer です。
// POST {url} に {"transaction": <v2 JSON>} を送り、{"digest": "..."} を受け取ります。
type WalletBridge struct {
	URL  string
	HTTP httpkit.Doer
}

// NewWalletBridge は WalletBridge を作成します。
func NewWalletBridge(url string, client httpkit.Doer) *WalletBridge {
	if client == nil {
		client = httpkit.New(defaultRPCTimeout)
	}
	return &WalletBridge{URL: url, HTTP: client}
}

type signRequest struct {
	Transaction *Transaction `json:"transaction"`
}

type signResponse struct {
	Digest string `json:"digest"`
	Error  string `json:"error,omitempty"`
}

// SignAndExecute は署名と送信を1回だけ依頼します。送信は冪等ではないので再試行しません。
func (w *WalletBridge) SignAndExecute(ctx context.Context, tx *Transaction) (string, error) {
	if w == nil || w.URL == "" {
		return "", domain.ErrNotConnected
	}
	body, err := json.Marshal(signRequest{Transaction: tx})
	if err != nil {
		return "", fmt.Errorf("%w: marshal transaction: %w", domain.ErrTransaction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTransaction, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: wallet bridge: %w", domain.ErrTransaction, err)
	}
	raw, err := httpkit.HandleResponse(resp)
	if err != nil {
		var httpErr *httpkit.NonRetryableHTTPError
		if errors.As(err, &httpErr) {
			return "", fmt.Errorf("%w: wallet bridge status=%d: %s", domain.ErrTransaction, httpErr.StatusCode, bridgeMessage(httpErr.Body))
		}
		return "", fmt.Errorf("%w: wallet bridge: %w", domain.ErrTransaction, err)
	}

	var sr signResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", fmt.Errorf("%w: wallet bridge: decode response: %w", domain.ErrTransaction, err)
	}
	if sr.Digest == "" {
		return "", fmt.Errorf("%w: wallet bridge returned no digest", domain.ErrTransaction)
	}
	return sr.Digest, nil
}

func bridgeMessage(body []byte) string {
	var sr signResponse
	if json.Unmarshal(body, &sr) == nil && sr.Error != "" {
		return sr.Error
	}
	return strings.TrimSpace(string(body))
}
