package config

import (
	"time"

	"github.com/shouni/go-nfter-kit/pkg/sui"
)

// デフォルト値の定義
const (
	DefaultReplicateBaseURL       = "https://api.replicate.com/v1"
	DefaultModel                  = "bytedance/pulid:43d309c37ab4e62361e5e29b8e9e867fb2dcbcec77ae91206a8d95ac5dd451a0"
	DefaultModelVersionLabel      = "sdxl-v1.0"
	DefaultRateInterval           = 2 * time.Second
	DefaultPredictionPollInterval = 1 * time.Second
	DefaultRequestTimeout         = 5 * time.Minute

	DefaultMaxUploadSize = 16 * 1024 * 1024

	DefaultWalrusPublisherURL  = "https://publisher.walrus-testnet.walrus.space"
	DefaultWalrusAggregatorURL = "https://aggregator.walrus-testnet.walrus.space"
	DefaultWalrusEpochs        = 1

	DefaultSuiRPCURL     = "https://fullnode.testnet.sui.io:443"
	DefaultMoveModule    = "nfter"
	DefaultMoveFunction  = "mint_nft"
	DefaultNFTStructName = "NFT"
	DefaultPaymentAmount = uint64(1_000_000)
	DefaultGasBudget     = uint64(50_000_000)

	DefaultConfirmInterval = 3 * time.Second
	DefaultConfirmAttempts = 10
)

// Config は NFTer Kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- Model Settings (Replicate) ---
	ReplicateAPIToken      string
	ReplicateBaseURL       string
	Model                  string // owner/name:version 形式のモデル識別子
	ModelVersionLabel      string // オンチェーンの属性に記録するバージョン表記
	InlineOutputs          bool   // 出力URLを取得して data URI に変換するかどうか
	RateInterval           time.Duration
	PredictionPollInterval time.Duration

	// --- Input Validation ---
	MaxUploadSize int64

	// --- Blob Store (Walrus) ---
	WalrusPublisherURL  string
	WalrusAggregatorURL string
	WalrusEpochs        int
	WalrusSendTo        string

	// --- Chain (Sui) ---
	SuiRPCURL       string
	PackageID       string
	CollectionID    string
	MoveModule      string
	MoveFunction    string
	NFTStructName   string
	PaymentAmount   uint64
	GasBudget       uint64
	WalletBridgeURL string
	SenderAddress   string

	// --- Confirmation Polling ---
	ConfirmInterval time.Duration
	ConfirmAttempts int

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ReplicateBaseURL:       DefaultReplicateBaseURL,
		Model:                  DefaultModel,
		ModelVersionLabel:      DefaultModelVersionLabel,
		InlineOutputs:          false,
		RateInterval:           DefaultRateInterval,
		PredictionPollInterval: DefaultPredictionPollInterval,
		MaxUploadSize:          DefaultMaxUploadSize,
		WalrusPublisherURL:     DefaultWalrusPublisherURL,
		WalrusAggregatorURL:    DefaultWalrusAggregatorURL,
		WalrusEpochs:           DefaultWalrusEpochs,
		SuiRPCURL:              DefaultSuiRPCURL,
		MoveModule:             DefaultMoveModule,
		MoveFunction:           DefaultMoveFunction,
		NFTStructName:          DefaultNFTStructName,
		PaymentAmount:          DefaultPaymentAmount,
		GasBudget:              DefaultGasBudget,
		ConfirmInterval:        DefaultConfirmInterval,
		ConfirmAttempts:        DefaultConfirmAttempts,
		RequestTimeout:         DefaultRequestTimeout,
	}
}

// NewConfig はデフォルト値で初期化された Config に API トークンをセットして返します。
func NewConfig(apiToken string) Config {
	cfg := DefaultConfig()
	cfg.ReplicateAPIToken = apiToken
	return cfg
}

// MintTarget は mint 関数の Move 呼び出し先 (package::module::function) を返します。
func (c Config) MintTarget() string {
	return c.packageAddress() + "::" + c.MoveModule + "::" + c.MoveFunction
}

// NFTType は mint によって作成されるオブジェクトの型タグを返します。
// パッケージ ID はチェーンが返す objectType と同じ 0x 付き小文字 64 桁に揃えます。
func (c Config) NFTType() string {
	return c.packageAddress() + "::" + c.MoveModule + "::" + c.NFTStructName
}

func (c Config) packageAddress() string {
	if norm, err := sui.NormalizeAddress(c.PackageID); err == nil {
		return norm
	}
	return c.PackageID
}
