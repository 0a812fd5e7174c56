package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-nfter-kit/pkg/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/walrus"
)

// UploadRunner は選択された生成画像を Blob ストアに保存します。
type UploadRunner struct {
	cfg      config.Config
	fetcher  ImageFetcher
	uploader BlobUploader
}

// NewUploadRunner は依存関係を注入して初期化します。
func NewUploadRunner(cfg config.Config, fetcher ImageFetcher, uploader BlobUploader) *UploadRunner {
	return &UploadRunner{cfg: cfg, fetcher: fetcher, uploader: uploader}
}

// Run は imageRef (生成結果の URL / data URI / パス) の内容を読み込み、そのままアップロードします。
func (r *UploadRunner) Run(ctx context.Context, imageRef string) (domain.UploadResult, error) {
	img, err := r.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return domain.UploadResult{}, err
	}
	return r.RunBytes(ctx, img.Data)
}

// RunBytes は読み込み済みのバイト列をアップロードします。
func (r *UploadRunner) RunBytes(ctx context.Context, data []byte) (domain.UploadResult, error) {
	res, err := r.uploader.Upload(ctx, data, walrus.Config{
		PublisherURL:  r.cfg.WalrusPublisherURL,
		AggregatorURL: r.cfg.WalrusAggregatorURL,
		Epochs:        r.cfg.WalrusEpochs,
		SendTo:        r.cfg.WalrusSendTo,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Blob upload failed", "error", err)
		return domain.UploadResult{}, err
	}
	slog.InfoContext(ctx, "Blob uploaded", "blob_id", res.BlobID, "url", res.URL)
	return res, nil
}
