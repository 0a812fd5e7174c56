package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/shouni/go-nfter-kit/pkg/roles"

	"github.com/spf13/cobra"
)

// rolesCmd は選択できるロールの一覧を表示するのだ。
var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "選択できるロールの一覧を表示するのだ。",
	RunE:  rolesCommand,
}

func rolesCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Options.RolesFile
	if path == "" {
		path = cfg.RolesFile
	}
	list, err := roles.LoadRoles(path)
	if err != nil {
		return fmt.Errorf("ロール定義の読み込みに失敗したのだ: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tWEIGHT\tSCORE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%d\t%d-%d\n", r.Label, r.Weight, r.Score.Min, r.Score.Max)
	}
	return tw.Flush()
}
