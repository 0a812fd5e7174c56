package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、元画像からロールに沿ったアバター画像を生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "元画像からアニメ風アバターを生成するのだ。",
	Long: `元画像とロールを指定して画像生成モデルを呼び出し、生成画像と結果 JSON を保存するのだ。
ロールを省略すると、重み付きの抽選でロールが決まるのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.ImageFile, "image", "i", "", "元画像のパス（ローカル or gs:// or URL）なのだ。")
	generateCmd.Flags().StringVarP(&opts.Role, "role", "r", config.DefaultRoleLabel, "ロール名なのだ。省略時は抽選なのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ImageFile == "" {
		return fmt.Errorf("元画像（--image）を指定してほしいのだ")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("アバター生成を起動するのだ！",
		"model", cfg.Kit.Model,
		"role", opts.Role,
		"output", opts.OutputDir)

	res, err := pipeline.ExecuteGenerate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return printJSON(cmd, res)
}
