package workflow

import (
	"fmt"

	"github.com/shouni/go-nfter-kit/pkg/runner"
)

// BuildGenerateRunner は、アバター生成を担当する Runner を作成します。
func (m *Manager) BuildGenerateRunner() (GenerateRunner, error) {
	return runner.NewGenerateRunner(m.cfg, m.generator, m.fetcher, m.writer), nil
}

// BuildUploadRunner は、Blob ストアへの保存を担当する Runner を作成します。
func (m *Manager) BuildUploadRunner() (UploadRunner, error) {
	if m.cfg.WalrusPublisherURL == "" || m.cfg.WalrusAggregatorURL == "" {
		return nil, fmt.Errorf("Walrus の publisher / aggregator URL が設定されていません")
	}
	return runner.NewUploadRunner(m.cfg, m.fetcher, m.blobs), nil
}

// BuildMintRunner は、mint と作成確認を担当する Runner を作成します。
func (m *Manager) BuildMintRunner() (MintRunner, error) {
	if m.cfg.PackageID == "" || m.cfg.CollectionID == "" {
		return nil, fmt.Errorf("パッケージIDとコレクションIDは必須です")
	}
	return runner.NewMintRunner(m.cfg, m.signer, m.poller), nil
}

var _ Workflow = (*Manager)(nil)
