package replicate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	replicatego "github.com/replicate/replicate-go"
)

// Options は Client の挙動を指定します。
type Options struct {
	BaseURL      string
	APIToken     string
	PollInterval time.Duration
	// Timeout は1回の予測 (作成から完了まで) にかける上限です。0 の場合は上限を設けません。
	Timeout time.Duration
	// InlineOutputs が true の場合、出力の URL を取得してストリーム要素として扱います。
	InlineOutputs bool
}

// StreamFetcher は出力ファイルの中身を開きます。httpkit.Client が満たします。
type StreamFetcher interface {
	GetStream(ctx context.Context, url string) (io.ReadCloser, error)
}

// Client は replicate-go をラップし、予測結果を Output に変換するクライアントです。
type Client struct {
	opts    Options
	api     *replicatego.Client
	initErr error
	files   StreamFetcher
}

// NewClient は Client を作成します。
// トークンが空の場合も作成には成功し、Run の呼び出し時に ErrInvocation を返します。
func NewClient(opts Options, httpClient *http.Client, files StreamFetcher) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	clientOpts := []replicatego.ClientOption{replicatego.WithToken(opts.APIToken)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, replicatego.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")))
	}
	if httpClient != nil {
		clientOpts = append(clientOpts, replicatego.WithHTTPClient(httpClient))
	}
	api, err := replicatego.NewClient(clientOpts...)
	return &Client{opts: opts, api: api, initErr: err, files: files}
}

// Run はモデルを実行し、完了まで待ってから出力を返します。
// model は "owner/name:version" または "owner/name" の形式です。
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (Output, error) {
	if c.initErr != nil {
		if errors.Is(c.initErr, replicatego.ErrNoAuth) {
			return Output{}, fmt.Errorf("%w: Replicate API token not configured", domain.ErrInvocation)
		}
		return Output{}, fmt.Errorf("%w: %w", domain.ErrInvocation, c.initErr)
	}
	id, err := replicatego.ParseIdentifier(model)
	if err != nil {
		return Output{}, fmt.Errorf("%w: モデル指定 '%s' が不正です: %w", domain.ErrInvocation, model, err)
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	pred, err := c.create(ctx, id, replicatego.PredictionInput(input))
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", domain.ErrInvocation, err)
	}
	slog.InfoContext(ctx, "Prediction created", "id", pred.ID, "status", pred.Status)

	if !pred.Status.Terminated() {
		if err := c.api.Wait(ctx, pred, replicatego.WithPollingInterval(c.opts.PollInterval)); err != nil {
			return Output{}, fmt.Errorf("%w: prediction %s: %w", domain.ErrInvocation, pred.ID, err)
		}
	}
	if pred.Status != replicatego.Succeeded {
		return Output{}, fmt.Errorf("%w: prediction %s %s: %v", domain.ErrInvocation, pred.ID, pred.Status, pred.Error)
	}

	out := DecodeValue(pred.Output)
	if c.opts.InlineOutputs {
		out = c.inline(out)
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, id *replicatego.Identifier, input replicatego.PredictionInput) (*replicatego.Prediction, error) {
	if id.Version != nil {
		return c.api.CreatePrediction(ctx, *id.Version, input, nil, false)
	}
	return c.api.CreatePredictionWithModel(ctx, id.Owner, id.Name, input, nil, false)
}

// inline は URL 文字列の要素を、取得して読み出すストリーム要素に置き換えます。
func (c *Client) inline(out Output) Output {
	if c.files == nil {
		return out
	}
	items := make([]Item, len(out.Items))
	for i, item := range out.Items {
		u := item.Text
		if item.Kind == ItemObject {
			u = item.URL
		}
		if (item.Kind == ItemText || item.Kind == ItemObject) && isHTTPURL(u) {
			items[i] = StreamItem(c.fileOpener(u))
			continue
		}
		items[i] = item
	}
	return Output{List: out.List, Items: items}
}

func (c *Client) fileOpener(u string) Opener {
	return func(ctx context.Context) (io.ReadCloser, string, error) {
		rc, err := c.files.GetStream(ctx, u)
		if err != nil {
			return nil, "", fmt.Errorf("出力ファイルの取得に失敗しました (url: %s): %w", u, err)
		}
		return rc, "", nil
	}
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
