package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/shouni/go-http-kit/httpkit"
)

const defaultRPCTimeout = 12 * time.Second

// RPCError は JSON-RPC のエラー応答です。
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("sui rpc: error code=%d message=%s", e.Code, e.Message)
}

// NotFound はトランザクションがまだインデックスされていないことを示すエラーかどうかを返します。
func (e *RPCError) NotFound() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "could not find")
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// JSONRPCClient は Sui フルノードへの最小限の JSON-RPC クライアントです。
// 5xx と通信エラーは httpkit の再試行に任せます。
type JSONRPCClient struct {
	Endpoint string
	HTTP     httpkit.Requester
	nextID   atomic.Int64
}

// NewJSONRPCClient は endpoint 向けのクライアントを作成します。
func NewJSONRPCClient(endpoint string, client httpkit.Requester) *JSONRPCClient {
	if client == nil {
		client = httpkit.New(defaultRPCTimeout)
	}
	return &JSONRPCClient{Endpoint: endpoint, HTTP: client}
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return fmt.Errorf("sui rpc: client not configured")
	}

	body, err := c.HTTP.PostJSONAndFetchBytes(ctx, c.Endpoint, rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("sui rpc: %s: %w", method, err)
	}

	var rr rpcResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("sui rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		return rr.Error
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("sui rpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// Owner はオブジェクトの所有者です。アドレス所有以外（共有・不変）の場合 AddressOwner は空です。
type Owner struct {
	AddressOwner string
	ObjectOwner  string
}

func (o *Owner) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		*o = Owner{}
		return nil
	}
	var raw struct {
		AddressOwner string `json:"AddressOwner"`
		ObjectOwner  string `json:"ObjectOwner"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Owner{AddressOwner: raw.AddressOwner, ObjectOwner: raw.ObjectOwner}
	return nil
}

type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  any    `json:"version"`
	Digest   string `json:"digest"`
}

type OwnedObjectRef struct {
	Owner     Owner     `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created"`
}

// ObjectChange は objectChanges の1要素です。Type が "created" のものを mint 結果の判定に使います。
type ObjectChange struct {
	Type       string `json:"type"`
	Sender     string `json:"sender"`
	Owner      Owner  `json:"owner"`
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
}

// TransactionBlock は sui_getTransactionBlock の結果のうち、確認処理に必要な部分です。
type TransactionBlock struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
}

// GetTransactionBlock は digest のトランザクションを effects と objectChanges 付きで取得します。
func (c *JSONRPCClient) GetTransactionBlock(ctx context.Context, digest string) (TransactionBlock, error) {
	var out TransactionBlock
	if strings.TrimSpace(digest) == "" {
		return out, fmt.Errorf("sui rpc: digest is empty")
	}
	params := []any{
		digest,
		models.SuiTransactionBlockOptions{
			ShowEffects:       true,
			ShowObjectChanges: true,
		},
	}
	if err := c.call(ctx, "sui_getTransactionBlock", params, &out); err != nil {
		return TransactionBlock{}, err
	}
	return out, nil
}
