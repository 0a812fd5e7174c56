package builder

import (
	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config         // Configは、環境変数と設定ファイルから読み込まれたグローバルな設定です。
	Options    config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Reader     remoteio.InputReader   // Readerは、元画像の読み込みに使用する入力元です。
	Writer     remoteio.OutputWriter  // Writerは、生成された画像や結果を保存するための出力先です。
	Workflow   *workflow.Manager      // Workflowは、各工程の Runner を構築する Manager です。
	httpClient httpkit.HTTPClient     // httpClient は利用者が渡した URL の取得に使う SSRF 対策付きクライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	httpClient httpkit.HTTPClient,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	manager *workflow.Manager,
) AppContext {
	return AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Reader:     reader,
		Writer:     writer,
		Workflow:   manager,
		httpClient: httpClient,
	}
}

// HTTPClient は SSRF 対策付きの HTTP クライアントを返します。
func (a *AppContext) HTTPClient() httpkit.HTTPClient {
	return a.httpClient
}
