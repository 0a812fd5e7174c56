package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/replicate"
)

// ReplicateInvoker は Replicate 上の顔画像スタイライズモデルを呼び出します。
type ReplicateInvoker struct {
	runner ModelRunner
	model  string
}

// NewReplicateInvoker は ReplicateInvoker を作成します。
func NewReplicateInvoker(runner ModelRunner, model string) *ReplicateInvoker {
	return &ReplicateInvoker{runner: runner, model: model}
}

// Invoke は画像を data URI としてリクエストに埋め込み、モデルの出力を URL のリストに正規化します。
func (inv *ReplicateInvoker) Invoke(ctx context.Context, image domain.ImageInput, prompt string) ([]string, error) {
	input := map[string]any{
		"prompt":          prompt,
		"main_face_image": image.DataURI(),
	}

	logger := slog.With("model", inv.model, "image_bytes", len(image.Data))
	logger.InfoContext(ctx, "Sending image to model for transformation")

	startTime := time.Now()
	out, err := inv.runner.Run(ctx, inv.model, input)
	if err != nil {
		return nil, fmt.Errorf("画像の変換に失敗しました: %w", err)
	}

	urls, err := replicate.Normalize(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("%w: モデル出力の正規化に失敗しました: %w", domain.ErrInvocation, err)
	}

	logger.InfoContext(ctx, "Model transformation completed",
		"count", len(urls),
		"duration", time.Since(startTime).Round(time.Millisecond))
	return urls, nil
}
