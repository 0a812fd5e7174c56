package workflow

import (
	"context"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"
)

// Workflow は、アバター NFT 作成の各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildGenerateRunner() (GenerateRunner, error)
	BuildUploadRunner() (UploadRunner, error)
	BuildMintRunner() (MintRunner, error)
}

// GenerateRunner は、元画像とロールからアバター画像を生成する責務を持ちます。
type GenerateRunner interface {
	Run(ctx context.Context, image domain.ImageInput, role string) (domain.GenerationResult, error)
	RunAndSave(ctx context.Context, image domain.ImageInput, role, outputDir string) (domain.GenerationResult, error)
}

// UploadRunner は、選択された生成画像を Blob ストアに保存する責務を持ちます。
type UploadRunner interface {
	Run(ctx context.Context, imageRef string) (domain.UploadResult, error)
	RunBytes(ctx context.Context, data []byte) (domain.UploadResult, error)
}

// MintRunner は、保存済み Blob を参照する NFT を mint し、作成を確認する責務を持ちます。
type MintRunner interface {
	Submit(ctx context.Context, req domain.MintRequest, account *sui.Account) (domain.MintOutcome, error)
	Run(ctx context.Context, req domain.MintRequest, account *sui.Account) (domain.MintOutcome, error)
}
