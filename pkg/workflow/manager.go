package workflow

import (
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/shouni/go-nfter-kit/pkg/asset"
	"github.com/shouni/go-nfter-kit/pkg/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/generator"
	"github.com/shouni/go-nfter-kit/pkg/replicate"
	"github.com/shouni/go-nfter-kit/pkg/roles"
	"github.com/shouni/go-nfter-kit/pkg/runner"
	"github.com/shouni/go-nfter-kit/pkg/sui"
	"github.com/shouni/go-nfter-kit/pkg/walrus"

	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/time/rate"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
// Model / Signer / TxFetcher / Sleep は省略時に Config から既定の実装を作成します。
//
// HTTPClient は Replicate API と、設定で指定された接続先 (Walrus / Sui RPC / ウォレットブリッジ) に使います。
// FetchClient は利用者が渡した画像 URL の取得に使い、省略時は SSRF 対策付きの httpkit.Client になります。
type ManagerArgs struct {
	Config      config.Config
	HTTPClient  *http.Client
	FetchClient httpkit.HTTPClient
	Reader      asset.InputReader
	Writer     runner.OutputWriter
	Roles      domain.Roles
	Rand       *rand.Rand

	Model     generator.ModelRunner
	Signer    sui.Signer
	TxFetcher sui.TransactionFetcher
	Sleep     sui.SleepFunc
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
type Manager struct {
	cfg       config.Config
	writer    runner.OutputWriter
	selector  *roles.Selector
	generator *generator.AvatarGenerator
	fetcher   *asset.Fetcher
	blobs     *walrus.Client
	signer    sui.Signer
	poller    *sui.Poller
}

// New は、設定とロール定義を基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.HTTPClient == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	cfg := args.Config

	roleList := args.Roles
	if len(roleList) == 0 {
		roleList = domain.DefaultRoles
	}
	selector, err := roles.NewSelector(roleList, args.Rand)
	if err != nil {
		return nil, fmt.Errorf("ロール定義の初期化に失敗しました: %w", err)
	}

	service := httpkit.New(cfg.RequestTimeout,
		httpkit.WithHTTPClient(args.HTTPClient),
		httpkit.WithSkipNetworkValidation(true),
	)
	fetchClient := args.FetchClient
	if fetchClient == nil {
		fetchClient = httpkit.New(cfg.RequestTimeout)
	}

	model := args.Model
	if model == nil {
		model = replicate.NewClient(replicate.Options{
			BaseURL:       cfg.ReplicateBaseURL,
			APIToken:      cfg.ReplicateAPIToken,
			PollInterval:  cfg.PredictionPollInterval,
			Timeout:       cfg.RequestTimeout,
			InlineOutputs: cfg.InlineOutputs,
		}, args.HTTPClient, fetchClient)
	}

	var limiter *rate.Limiter
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), defaultRateBurst)
	}
	gen := generator.NewAvatarGenerator(
		generator.NewReplicateInvoker(model, cfg.Model),
		selector,
		limiter,
		cfg.MaxUploadSize,
	)

	signer := args.Signer
	if signer == nil {
		signer = sui.NewWalletBridge(cfg.WalletBridgeURL, service)
	}
	txFetcher := args.TxFetcher
	if txFetcher == nil {
		txFetcher = sui.NewJSONRPCClient(cfg.SuiRPCURL, service)
	}
	var pollerOpts []sui.PollerOption
	if args.Sleep != nil {
		pollerOpts = append(pollerOpts, sui.WithSleep(args.Sleep))
	}

	return &Manager{
		cfg:       cfg,
		writer:    args.Writer,
		selector:  selector,
		generator: gen,
		fetcher:   asset.NewFetcher(fetchClient, args.Reader, cfg.MaxUploadSize),
		blobs:     walrus.NewClient(service),
		signer:    signer,
		poller:    sui.NewPoller(txFetcher, cfg.NFTType(), cfg.ConfirmInterval, cfg.ConfirmAttempts, pollerOpts...),
	}, nil
}

// Config は Manager が使用している設定を返します。
func (m *Manager) Config() config.Config {
	return m.cfg
}

// Roles は利用可能なロールの一覧を返します。
func (m *Manager) Roles() domain.Roles {
	return m.selector.Roles()
}

// Fetcher は画像参照の解決に使う Fetcher を返します。
func (m *Manager) Fetcher() *asset.Fetcher {
	return m.fetcher
}
