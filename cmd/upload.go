package cmd

import (
	"fmt"

	"github.com/shouni/go-nfter-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// uploadCmd は生成画像を Walrus に保存するのだ。
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "生成画像を Walrus に保存するのだ。",
	RunE:  uploadCommand,
}

func init() {
	uploadCmd.Flags().StringVar(&opts.ImageRef, "image-ref", "", "保存する画像（URL / data URI / ローカル or gs:// パス）なのだ。")
}

func uploadCommand(cmd *cobra.Command, args []string) error {
	if opts.ImageRef == "" {
		return fmt.Errorf("保存する画像（--image-ref）を指定してほしいのだ")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := pipeline.ExecuteUpload(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}
