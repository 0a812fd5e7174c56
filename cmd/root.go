package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shouni/go-nfter-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts はフラグの値を受け取る実行時パラメータなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 設定ファイル ---
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "設定ファイル（YAML）のパスなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.RolesFile, "roles-file", "", "ロール定義 JSON のパス（ローカル）なのだ。省略時は組み込みのカタログを使うのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成画像と結果 JSON の保存先（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.InlineOutput, "inline", false, "モデルの出力 URL を data URI に変換して扱うのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部サービスへのリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case generateCmd.Name(), publishCmd.Name(), serveCmd.Name():
		// 画像生成は Replicate を使うので、API トークンの存在チェックは欠かせないのだ！
		if os.Getenv("REPLICATE_API_TOKEN") == "" {
			return fmt.Errorf("エラー: 環境変数 REPLICATE_API_TOKEN が設定されていません。画像生成には必須なのだ")
		}
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"nfter",
		addAppFlags,
		preRunAppE,
		rolesCmd,
		generateCmd,
		uploadCmd,
		mintCmd,
		publishCmd,
		serveCmd,
	)
}

// loadConfig は環境変数・設定ファイル・フラグの順に設定を重ねるのだ。
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.LoadSettingsFile(opts.ConfigFile); err != nil {
		return nil, err
	}
	cfg.Options = opts
	return cfg, nil
}

// printJSON は結果を標準出力に整形して書き出すのだ。
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
