package cmd

import (
	"github.com/shouni/go-nfter-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// mintCmd は保存済みの Blob を参照する NFT を mint するのだ。
var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Walrus の Blob を参照する NFT を mint するのだ。",
	Long: `ウォレットブリッジ経由で mint_nft トランザクションに署名・実行するのだ。
--wait を付けると、作成された NFT オブジェクトを確認できるまで待つのだよ。`,
	RunE: mintCommand,
}

func init() {
	mintCmd.Flags().StringVar(&opts.BlobID, "blob-id", "", "mint する Blob の ID なのだ。")
	mintCmd.Flags().StringVarP(&opts.Role, "role", "r", "", "属性に記録するロール名なのだ。")
	mintCmd.Flags().StringVar(&opts.Prompt, "prompt", "", "属性に記録する生成プロンプトなのだ。")
	mintCmd.Flags().StringVar(&opts.Name, "name", "", "NFT の名前なのだ。省略時はロールから決めるのだ。")
	mintCmd.Flags().StringVar(&opts.Description, "description", "", "NFT の説明なのだ。")
	mintCmd.Flags().StringVar(&opts.Sender, "sender", "", "送信者のアドレスなのだ。省略時は SUI_SENDER_ADDRESS を使うのだ。")
	mintCmd.Flags().BoolVar(&opts.Wait, "wait", true, "作成の確認まで待つかどうかなのだ。")
}

func mintCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outcome, err := pipeline.ExecuteMint(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd, outcome)
}
