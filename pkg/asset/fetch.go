package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	"github.com/shouni/go-http-kit/httpkit"
)

const defaultFetchTimeout = 30 * time.Second

// InputReader はローカルファイルや gs:// のオブジェクトを開きます。remoteio.InputReader を満たします。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Fetcher は画像の参照 (data URI / http(s) URL / ローカル・GCS パス) を ImageInput に解決します。
// http(s) の取得には SSRF 対策付きの httpkit.Client を使う想定です。
type Fetcher struct {
	httpClient httpkit.Requester
	reader     InputReader
	maxSize    int64
}

// NewFetcher は Fetcher を作成します。reader が nil の場合は data URI と http(s) のみ扱えます。
func NewFetcher(httpClient httpkit.Requester, reader InputReader, maxSize int64) *Fetcher {
	if httpClient == nil {
		httpClient = httpkit.New(defaultFetchTimeout)
	}
	return &Fetcher{httpClient: httpClient, reader: reader, maxSize: maxSize}
}

// Fetch は ref が指す画像を読み込みます。maxSize を超える内容は ErrValidation になります。
func (f *Fetcher) Fetch(ctx context.Context, ref string) (domain.ImageInput, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return domain.ImageInput{}, domain.Validationf("No image provided")
	case strings.HasPrefix(ref, "data:"):
		mimeType, data, err := ParseDataURI(ref)
		if err != nil {
			return domain.ImageInput{}, domain.Validationf("%v", err)
		}
		if err := f.checkSize(len(data)); err != nil {
			return domain.ImageInput{}, err
		}
		return domain.ImageInput{
			Filename:    "image" + ExtensionForMIME(mimeType),
			ContentType: mimeType,
			Data:        data,
		}, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	default:
		return f.fetchReader(ctx, ref)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (domain.ImageInput, error) {
	data, err := f.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return domain.ImageInput{}, fmt.Errorf("画像の取得に失敗しました (url: %s): %w", rawURL, err)
	}
	if err := f.checkSize(len(data)); err != nil {
		return domain.ImageInput{}, err
	}

	name := "image"
	if u, err := url.Parse(rawURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	slog.InfoContext(ctx, "Fetched image", "url", rawURL, "bytes", len(data))
	return withExtension(domain.ImageInput{Filename: name, Data: data}), nil
}

func (f *Fetcher) fetchReader(ctx context.Context, p string) (domain.ImageInput, error) {
	if f.reader == nil {
		return domain.ImageInput{}, fmt.Errorf("パス '%s' を読み込むリーダーが設定されていません", p)
	}
	rc, err := f.reader.Open(ctx, p)
	if err != nil {
		return domain.ImageInput{}, fmt.Errorf("画像ファイル '%s' の読み込みに失敗しました: %w", p, err)
	}
	defer rc.Close()

	data, err := f.readLimited(rc)
	if err != nil {
		return domain.ImageInput{}, err
	}
	return domain.ImageInput{Filename: path.Base(p), Data: data}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxSize > 0 {
		r = io.LimitReader(r, f.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	if err := f.checkSize(len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) checkSize(n int) error {
	if f.maxSize > 0 && int64(n) > f.maxSize {
		return domain.Validationf("File too large. Maximum size is %dMB", f.maxSize/(1024*1024))
	}
	return nil
}

// withExtension は拡張子を持たない URL 由来のファイル名に、内容から判定した拡張子を補います。
func withExtension(in domain.ImageInput) domain.ImageInput {
	if path.Ext(in.Filename) == "" {
		in.Filename += ExtensionForMIME(in.MimeType())
	}
	return in
}

// ParseDataURI は data URI を MIME タイプとバイト列に分解します。
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("data URI ではありません")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("不正な data URI です")
	}

	mimeType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			mimeType = part
		case part == "base64":
			isBase64 = true
		}
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("不正な data URI です: %w", err)
		}
		return mimeType, []byte(decoded), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI の base64 デコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}
