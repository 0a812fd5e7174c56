package walrus

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheExpiration = 10 * time.Minute
	cacheCleanupInterval   = 20 * time.Minute
	defaultUploadTimeout   = 2 * time.Minute
)

// Config は Blob ストアの接続先と保存期間です。
type Config struct {
	PublisherURL  string
	AggregatorURL string
	Epochs        int
	SendTo        string
}

// BlobURL は aggregator 上で Blob を配信する URL を返します。
func BlobURL(aggregatorURL, blobID string) string {
	return strings.TrimRight(aggregatorURL, "/") + "/v1/blobs/" + blobID
}

// Client は Walrus のパブリッシャーに対する HTTP クライアントです。
// 同じ内容の同時アップロードは1回にまとめ、成功した結果は一定時間キャッシュします。
type Client struct {
	httpClient  httpkit.Requester
	cache       *cache.Cache
	uploadGroup singleflight.Group
}

// NewClient は Client を作成します。httpClient が nil の場合は既定の httpkit.Client を使います。
func NewClient(httpClient httpkit.Requester) *Client {
	if httpClient == nil {
		httpClient = httpkit.New(defaultUploadTimeout)
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// Upload はファイルの生バイト列をパブリッシャーに PUT し、応答を UploadResult に正規化します。
//
// 共有されたアップロードは呼び出し元のキャンセルから切り離して実行します。
// 先に始めた呼び出し元が取り消されても、後から合流した呼び出し元は結果を受け取れます。
func (c *Client) Upload(ctx context.Context, data []byte, cfg Config) (domain.UploadResult, error) {
	if len(data) == 0 {
		return domain.UploadResult{}, domain.Validationf("アップロードする内容が空です")
	}
	key := cacheKey(data, cfg)
	if v, ok := c.cache.Get(key); ok {
		slog.InfoContext(ctx, "Reusing cached blob upload", "blob_id", v.(domain.UploadResult).BlobID)
		return v.(domain.UploadResult), nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.uploadGroup.DoChan(key, func() (interface{}, error) {
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
		res, err := c.put(flightCtx, data, cfg)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.UploadResult{}, fmt.Errorf("%w: %w", domain.ErrUpload, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.UploadResult{}, r.Err
		}
		res, ok := r.Val.(domain.UploadResult)
		if !ok {
			return domain.UploadResult{}, fmt.Errorf("unexpected return type from singleflight: %T", r.Val)
		}
		return res, nil
	}
}

func (c *Client) put(ctx context.Context, data []byte, cfg Config) (domain.UploadResult, error) {
	uploadURL := uploadURL(cfg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w: %w", domain.ErrUpload, err)
	}

	slog.InfoContext(ctx, "Uploading blob to Walrus", "url", uploadURL, "bytes", len(data))
	body, err := c.httpClient.DoRequest(req)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w: Failed to upload to Walrus: %w", domain.ErrUpload, err)
	}

	res, err := normalize(body, cfg.AggregatorURL)
	if err != nil {
		return domain.UploadResult{}, err
	}
	slog.InfoContext(ctx, "Blob stored", "blob_id", res.BlobID, "ref_type", res.SuiRefType, "end_epoch", res.EndEpoch)
	return res, nil
}

// uploadURL は {publisher}/v1/blobs?epochs={n}[&send_object_to={addr}] を組み立てます。
func uploadURL(cfg Config) string {
	u := fmt.Sprintf("%s/v1/blobs?epochs=%d", strings.TrimRight(cfg.PublisherURL, "/"), cfg.Epochs)
	if cfg.SendTo != "" {
		u += "&send_object_to=" + url.QueryEscape(cfg.SendTo)
	}
	return u
}

func cacheKey(data []byte, cfg Config) string {
	sum := sha256.Sum256(data)
	return strings.Join([]string{
		hex.EncodeToString(sum[:]),
		cfg.PublisherURL,
		cfg.AggregatorURL,
		strconv.Itoa(cfg.Epochs),
		cfg.SendTo,
	}, "|")
}
