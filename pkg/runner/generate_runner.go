package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/pkg/asset"
	"github.com/shouni/go-nfter-kit/pkg/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/generator"

	"golang.org/x/sync/errgroup"
)

// maxParallelSaves は生成画像を保存する際の同時実行数です。
const maxParallelSaves = 4

// GenerateRunner は元画像とロールからアバター画像を生成し、必要に応じて保存します。
type GenerateRunner struct {
	cfg       config.Config
	generator generator.AvatarGeneratorInterface
	fetcher   ImageFetcher
	writer    OutputWriter
}

// NewGenerateRunner は依存関係を注入して初期化します。
func NewGenerateRunner(cfg config.Config, gen generator.AvatarGeneratorInterface, fetcher ImageFetcher, writer OutputWriter) *GenerateRunner {
	return &GenerateRunner{
		cfg:       cfg,
		generator: gen,
		fetcher:   fetcher,
		writer:    writer,
	}
}

// Run はアバター画像を生成します。
func (r *GenerateRunner) Run(ctx context.Context, image domain.ImageInput, role string) (domain.GenerationResult, error) {
	slog.InfoContext(ctx, "Starting avatar generation", "role", role, "file", image.Filename, "bytes", len(image.Data))

	res, err := r.generator.Generate(ctx, image, role)
	if err != nil {
		slog.ErrorContext(ctx, "Avatar generation failed", "error", err)
		return domain.GenerationResult{}, err
	}

	slog.InfoContext(ctx, "Successfully generated avatars", "role", res.Role, "count", len(res.ImageURLs), "scores", res.Scores)
	return res, nil
}

// RunAndSave はアバター画像を生成し、連番付きで outputDir に保存します。
// 結果の ImageURLs は保存先パスに置き換わり、generation.json も同じディレクトリに書き出します。
// モデル出力の空要素は保存せず、同じ位置を空文字列のまま残します。
func (r *GenerateRunner) RunAndSave(ctx context.Context, image domain.ImageInput, role, outputDir string) (domain.GenerationResult, error) {
	if r.writer == nil || r.fetcher == nil {
		return domain.GenerationResult{}, fmt.Errorf("保存には writer と fetcher が必要です")
	}

	res, err := r.Run(ctx, image, role)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	paths := make([]string, len(res.ImageURLs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelSaves)
	for i, u := range res.ImageURLs {
		if u == "" {
			slog.WarnContext(ctx, "空の出力をスキップします", "index", i+1)
			continue
		}
		eg.Go(func() error {
			p, err := r.saveImage(egCtx, i+1, u, outputDir)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return domain.GenerationResult{}, err
	}

	saved := res
	saved.ImageURLs = paths
	if err := r.saveResult(ctx, saved, outputDir); err != nil {
		return domain.GenerationResult{}, err
	}
	return saved, nil
}

func (r *GenerateRunner) saveImage(ctx context.Context, index int, ref, outputDir string) (string, error) {
	img, err := r.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("第 %d 画像の取得に失敗しました: %w", index, err)
	}

	mimeType := img.MimeType()
	p, err := asset.AvatarPath(outputDir, index, mimeType)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "アバター画像を保存しています", "index", index, "path", p)
	if err := r.writer.Write(ctx, p, bytes.NewReader(img.Data), mimeType); err != nil {
		return "", fmt.Errorf("第 %d 画像の保存に失敗しました (path: %s): %w", index, p, err)
	}
	return p, nil
}

func (r *GenerateRunner) saveResult(ctx context.Context, res domain.GenerationResult, outputDir string) error {
	p, err := asset.ResolveOutputPath(outputDir, asset.DefaultResultFileName)
	if err != nil {
		return fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if err := r.writer.Write(ctx, p, bytes.NewReader(b), "application/json"); err != nil {
		return fmt.Errorf("生成結果の保存に失敗しました (path: %s): %w", p, err)
	}
	return nil
}
