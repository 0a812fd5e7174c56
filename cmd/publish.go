package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// publishCmd は生成・保存・mint をまとめて実行するのだ。
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "アバターを生成して Walrus に保存し、NFT として mint するのだ。",
	RunE:  publishCommand,
}

func init() {
	publishCmd.Flags().StringVarP(&opts.ImageFile, "image", "i", "", "元画像のパス（ローカル or gs:// or URL）なのだ。")
	publishCmd.Flags().StringVarP(&opts.Role, "role", "r", config.DefaultRoleLabel, "ロール名なのだ。省略時は抽選なのだ。")
	publishCmd.Flags().IntVar(&opts.Pick, "pick", config.DefaultPick, "保存する生成画像の番号（1始まり）なのだ。")
	publishCmd.Flags().StringVar(&opts.Name, "name", "", "NFT の名前なのだ。")
	publishCmd.Flags().StringVar(&opts.Description, "description", "", "NFT の説明なのだ。")
	publishCmd.Flags().StringVar(&opts.Sender, "sender", "", "送信者のアドレスなのだ。")
}

func publishCommand(cmd *cobra.Command, args []string) error {
	if opts.ImageFile == "" {
		return fmt.Errorf("元画像（--image）を指定してほしいのだ")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outcome, err := pipeline.ExecutePublish(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	slog.Info("すべての工程が完了したのだ！", "status", outcome.Status)
	return printJSON(cmd, outcome)
}
