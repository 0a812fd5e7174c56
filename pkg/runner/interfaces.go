package runner

import (
	"context"
	"io"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"
	"github.com/shouni/go-nfter-kit/pkg/walrus"
)

// OutputWriter は生成物をローカルや GCS に書き出します。remoteio.OutputWriter を満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// ImageFetcher は画像の参照 (URL / data URI / パス) を読み込みます。
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) (domain.ImageInput, error)
}

// BlobUploader はバイト列を Blob ストアに保存します。
type BlobUploader interface {
	Upload(ctx context.Context, data []byte, cfg walrus.Config) (domain.UploadResult, error)
}

// MintPoller は mint トランザクションの作成オブジェクトを確認します。
type MintPoller interface {
	Poll(ctx context.Context, digest, sender string) (domain.MintOutcome, error)
}

var (
	_ BlobUploader = (*walrus.Client)(nil)
	_ MintPoller   = (*sui.Poller)(nil)
)
