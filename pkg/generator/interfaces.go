package generator

import (
	"context"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/replicate"
)

// ModelRunner はリモートの画像生成モデルを実行する責務を持ちます。
type ModelRunner interface {
	Run(ctx context.Context, model string, input map[string]any) (replicate.Output, error)
}

// Invoker は画像とプロンプトを渡してモデルを呼び出し、生成画像の URL を返す責務を持ちます。
type Invoker interface {
	Invoke(ctx context.Context, image domain.ImageInput, prompt string) ([]string, error)
}

// AvatarGeneratorInterface はアップロード画像とロール指定からアバター画像を生成する責務を持ちます。
type AvatarGeneratorInterface interface {
	Generate(ctx context.Context, image domain.ImageInput, selectedRole string) (domain.GenerationResult, error)
}
