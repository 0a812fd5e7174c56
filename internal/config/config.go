package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kitcfg "github.com/shouni/go-nfter-kit/pkg/config"

	"github.com/shouni/go-utils/envutil"
	"github.com/spf13/viper"
)

// デフォルト値の定義なのだ
const (
	DefaultHTTPTimeout = 60 * time.Second
	DefaultOutputDir   = "output"   // 生成画像と結果 JSON の保存先なのだ
	DefaultListenAddr  = ":8080"    // serve コマンドの待ち受けアドレスなのだ
	DefaultRoleLabel   = ""         // 空ならロールは重み付き抽選なのだ
	DefaultPick        = 1          // publish で保存する生成画像の番号（1始まり）なのだ
	DefaultSettingsExt = "yaml"
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	Kit       kitcfg.Config
	RolesFile string
	Mint      MintDefaults

	Options GenerateOptions
}

// MintDefaults は mint フォームの初期値のうち、設定ファイルで上書きできるものなのだ。
type MintDefaults struct {
	BasePrompt         string
	StylePrompt        string
	GenerationParams   string
	RoyaltyRecipients  []string
	RoyaltyPercentages []uint64
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	kit := kitcfg.NewConfig(envutil.GetEnv("REPLICATE_API_TOKEN", ""))
	kit.ReplicateBaseURL = envutil.GetEnv("REPLICATE_BASE_URL", kitcfg.DefaultReplicateBaseURL)
	kit.Model = envutil.GetEnv("REPLICATE_MODEL", kitcfg.DefaultModel)
	kit.ModelVersionLabel = envutil.GetEnv("MODEL_VERSION_LABEL", kitcfg.DefaultModelVersionLabel)
	kit.WalrusPublisherURL = envutil.GetEnv("WALRUS_PUBLISHER_URL", kitcfg.DefaultWalrusPublisherURL)
	kit.WalrusAggregatorURL = envutil.GetEnv("WALRUS_AGGREGATOR_URL", kitcfg.DefaultWalrusAggregatorURL)
	kit.WalrusEpochs = envInt("WALRUS_EPOCHS", kitcfg.DefaultWalrusEpochs)
	kit.WalrusSendTo = envutil.GetEnv("WALRUS_SEND_OBJECT_TO", "")
	kit.SuiRPCURL = envutil.GetEnv("SUI_RPC_URL", kitcfg.DefaultSuiRPCURL)
	kit.PackageID = envutil.GetEnv("SUI_PACKAGE_ID", "")
	kit.CollectionID = envutil.GetEnv("SUI_COLLECTION_ID", "")
	kit.WalletBridgeURL = envutil.GetEnv("WALLET_BRIDGE_URL", "")
	kit.SenderAddress = envutil.GetEnv("SUI_SENDER_ADDRESS", "")

	return &Config{
		Kit:       kit,
		RolesFile: envutil.GetEnv("ROLES_FILE", ""),
		Mint:      MintDefaults{GenerationParams: "{}"},
	}
}

// LoadSettingsFile は YAML の設定ファイルを読み込み、指定されている項目だけを上書きするのだ。
func (c *Config) LoadSettingsFile(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(DefaultSettingsExt)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("設定ファイル '%s' の読み込みに失敗したのだ: %w", path, err)
	}

	setString(v, "replicate.model", &c.Kit.Model)
	setString(v, "replicate.modelVersionLabel", &c.Kit.ModelVersionLabel)
	setString(v, "walrus.publisherUrl", &c.Kit.WalrusPublisherURL)
	setString(v, "walrus.aggregatorUrl", &c.Kit.WalrusAggregatorURL)
	setString(v, "walrus.sendTo", &c.Kit.WalrusSendTo)
	if v.IsSet("walrus.epochs") {
		c.Kit.WalrusEpochs = v.GetInt("walrus.epochs")
	}
	setString(v, "sui.rpcUrl", &c.Kit.SuiRPCURL)
	setString(v, "sui.packageId", &c.Kit.PackageID)
	setString(v, "sui.collectionId", &c.Kit.CollectionID)
	setString(v, "sui.walletBridgeUrl", &c.Kit.WalletBridgeURL)
	setString(v, "sui.sender", &c.Kit.SenderAddress)
	if v.IsSet("sui.gasBudget") {
		c.Kit.GasBudget = uint64(v.GetInt64("sui.gasBudget"))
	}
	setString(v, "roles.file", &c.RolesFile)

	setString(v, "mint.basePrompt", &c.Mint.BasePrompt)
	setString(v, "mint.stylePrompt", &c.Mint.StylePrompt)
	setString(v, "mint.generationParams", &c.Mint.GenerationParams)
	if v.IsSet("mint.royaltyRecipients") {
		c.Mint.RoyaltyRecipients = v.GetStringSlice("mint.royaltyRecipients")
	}
	if v.IsSet("mint.royaltyPercentages") {
		pcts := v.GetIntSlice("mint.royaltyPercentages")
		c.Mint.RoyaltyPercentages = make([]uint64, 0, len(pcts))
		for _, p := range pcts {
			if p < 0 {
				return fmt.Errorf("ロイヤリティ比率に負の値は指定できないのだ: %d", p)
			}
			c.Mint.RoyaltyPercentages = append(c.Mint.RoyaltyPercentages, uint64(p))
		}
	}
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func envInt(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数が整数ではないので既定値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力関連
	ImageFile  string // --image: 元画像（ローカル or gs:// or URL）
	Role       string // --role
	RolesFile  string // --roles-file
	ConfigFile string // --config

	// 出力関連
	OutputDir string // --output-dir

	// アップロード・mint 関連
	ImageRef     string // --image-ref: 保存する生成画像（URL / data URI / パス）
	Pick         int    // --pick: publish で保存する生成画像の番号
	BlobID       string // --blob-id
	Sender       string // --sender
	Name         string // --name
	Description  string // --description
	Prompt       string // --prompt
	Wait         bool   // --wait: mint 後に作成確認まで待つかどうか
	InlineOutput bool   // --inline

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	ListenAddr  string        // --addr
}
