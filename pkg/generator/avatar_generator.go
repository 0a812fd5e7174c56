package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/roles"

	"golang.org/x/time/rate"
)

// AvatarGenerator は入力検証、ロール解決、モデル呼び出し、スコア付与を順に行います。
type AvatarGenerator struct {
	invoker       Invoker
	selector      *roles.Selector
	limiter       *rate.Limiter
	maxUploadSize int64
}

// NewAvatarGenerator は AvatarGenerator を作成します。limiter が nil の場合は流量制限を行いません。
func NewAvatarGenerator(invoker Invoker, selector *roles.Selector, limiter *rate.Limiter, maxUploadSize int64) *AvatarGenerator {
	return &AvatarGenerator{
		invoker:       invoker,
		selector:      selector,
		limiter:       limiter,
		maxUploadSize: maxUploadSize,
	}
}

// Generate は画像を指定ロール（空なら重み付き抽選）のキャラクターに変換します。
// 検証エラーの場合はモデルを一切呼び出しません。
func (g *AvatarGenerator) Generate(ctx context.Context, image domain.ImageInput, selectedRole string) (domain.GenerationResult, error) {
	if err := image.Validate(g.maxUploadSize); err != nil {
		return domain.GenerationResult{}, err
	}

	res := g.selector.Resolve(selectedRole)
	slog.InfoContext(ctx, "Resolved role", "role", res.Label, "requested", selectedRole)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("%w: %w", domain.ErrInvocation, err)
		}
	}

	urls, err := g.invoker.Invoke(ctx, image, res.Prompt)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	return domain.GenerationResult{
		ImageURLs: urls,
		Role:      res.Label,
		Scores:    g.selector.GenerateScores(res.ScoreRange, len(urls)),
		Prompt:    res.Prompt,
	}, nil
}
