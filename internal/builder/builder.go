package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/asset"
	"github.com/shouni/go-nfter-kit/pkg/roles"
	"github.com/shouni/go-nfter-kit/pkg/runner"
	"github.com/shouni/go-nfter-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// BuildAppContext は、設定から HTTP クライアント・remote-io・Manager を組み立てて AppContext を返すのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	// 利用者が渡した URL は SSRF 対策付きのクライアントで取得するのだ。
	fetchClient := httpkit.New(timeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	manager, err := BuildManager(cfg, httpClient, fetchClient, reader, writer)
	if err != nil {
		return nil, err
	}

	appCtx := NewAppContext(cfg, fetchClient, reader, writer, manager)
	return &appCtx, nil
}

// BuildManager は、ロール定義を読み込んで workflow.Manager を初期化するのだ。
// fetchClient が nil の場合は Manager 側の既定クライアントを使うのだ。
func BuildManager(cfg *config.Config, httpClient *http.Client, fetchClient httpkit.HTTPClient, reader asset.InputReader, writer runner.OutputWriter) (*workflow.Manager, error) {
	rolesFile := cfg.RolesFile
	if cfg.Options.RolesFile != "" {
		rolesFile = cfg.Options.RolesFile
	}
	roleList, err := roles.LoadRoles(rolesFile)
	if err != nil {
		return nil, fmt.Errorf("ロール定義の読み込みに失敗したのだ: %w", err)
	}

	kit := cfg.Kit
	if cfg.Options.InlineOutput {
		kit.InlineOutputs = true
	}

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:      kit,
		HTTPClient:  httpClient,
		FetchClient: fetchClient,
		Reader:      reader,
		Writer:      writer,
		Roles:       roleList,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}
	return manager, nil
}
