package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/internal/builder"
	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/asset"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"
	"github.com/shouni/go-nfter-kit/pkg/walrus"
)

// ExecuteGenerate は元画像を読み込み、アバター画像を生成して出力ディレクトリに保存するのだ。
func ExecuteGenerate(ctx context.Context, cfg *config.Config) (domain.GenerationResult, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	image, err := appCtx.Workflow.Fetcher().Fetch(ctx, cfg.Options.ImageFile)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("元画像 '%s' の読み込みに失敗したのだ: %w", cfg.Options.ImageFile, err)
	}

	genRunner, err := appCtx.Workflow.BuildGenerateRunner()
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("GenerateRunnerの構築に失敗したのだ: %w", err)
	}

	res, err := genRunner.RunAndSave(ctx, image, cfg.Options.Role, cfg.Options.OutputDir)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("アバター生成に失敗したのだ: %w", err)
	}
	slog.Info("アバター画像を保存したのだ！", "role", res.Role, "files", res.ImageURLs, "scores", res.Scores)
	return res, nil
}

// ExecuteUpload は選択した生成画像を Walrus に保存するのだ。
func ExecuteUpload(ctx context.Context, cfg *config.Config) (domain.UploadResult, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return domain.UploadResult{}, err
	}
	return runUploadStep(ctx, appCtx, cfg.Options.ImageRef)
}

// ExecuteMint は保存済みの Blob を参照する NFT を mint するのだ。
// --wait が指定された場合は作成されたオブジェクトの確認まで待つのだ。
func ExecuteMint(ctx context.Context, cfg *config.Config) (domain.MintOutcome, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return domain.MintOutcome{}, err
	}
	if cfg.Options.BlobID == "" {
		return domain.MintOutcome{}, domain.Validationf("--blob-id を指定してほしいのだ")
	}
	blob := domain.UploadResult{
		BlobID: cfg.Options.BlobID,
		URL:    walrus.BlobURL(cfg.Kit.WalrusAggregatorURL, cfg.Options.BlobID),
	}
	req := BuildMintRequest(cfg, cfg.Options.Role, cfg.Options.Prompt, blob)
	return runMintStep(ctx, appCtx, req, cfg.Options.Wait)
}

// ExecutePublish は生成・保存・mint を一気通貫で実行するのだ。
func ExecutePublish(ctx context.Context, cfg *config.Config) (domain.MintOutcome, error) {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return domain.MintOutcome{}, err
	}

	// --- Phase 1: 生成 ---
	image, err := appCtx.Workflow.Fetcher().Fetch(ctx, cfg.Options.ImageFile)
	if err != nil {
		return domain.MintOutcome{}, fmt.Errorf("元画像 '%s' の読み込みに失敗したのだ: %w", cfg.Options.ImageFile, err)
	}
	genRunner, err := appCtx.Workflow.BuildGenerateRunner()
	if err != nil {
		return domain.MintOutcome{}, fmt.Errorf("GenerateRunnerの構築に失敗したのだ: %w", err)
	}
	slog.Info("Phase 1: アバター生成を開始するのだ...", "role", cfg.Options.Role)
	gen, err := genRunner.Run(ctx, image, cfg.Options.Role)
	if err != nil {
		return domain.MintOutcome{}, fmt.Errorf("アバター生成に失敗したのだ: %w", err)
	}

	pick := cfg.Options.Pick
	if pick < 1 || pick > len(gen.ImageURLs) {
		return domain.MintOutcome{}, domain.Validationf("--pick は 1〜%d で指定してほしいのだ: %d", len(gen.ImageURLs), pick)
	}

	// --- Phase 2: 保存 ---
	slog.Info("Phase 2: Walrus への保存を開始するのだ...", "pick", pick)
	blob, err := runUploadStep(ctx, appCtx, gen.ImageURLs[pick-1])
	if err != nil {
		return domain.MintOutcome{}, err
	}

	// --- Phase 3: mint ---
	slog.Info("Phase 3: mint を開始するのだ...", "blob_id", blob.BlobID)
	req := BuildMintRequest(cfg, gen.Role, gen.Prompt, blob)
	outcome, err := runMintStep(ctx, appCtx, req, true)
	if err != nil {
		return outcome, err
	}

	if err := saveJSON(ctx, appCtx, asset.DefaultMintFileName, map[string]any{
		"generation": gen,
		"blob":       blob,
		"mint":       outcome,
	}); err != nil {
		slog.Warn("結果ファイルの保存に失敗したのだ", "error", err)
	}
	return outcome, nil
}

// BuildMintRequest は生成結果と設定ファイルの既定値から MintRequest を組み立てるのだ。
func BuildMintRequest(cfg *config.Config, role, prompt string, blob domain.UploadResult) domain.MintRequest {
	req := domain.NewMintRequest(role, prompt, cfg.Kit.ModelVersionLabel, blob)
	req.BasePrompt = cfg.Mint.BasePrompt
	req.StylePrompt = cfg.Mint.StylePrompt
	if cfg.Mint.GenerationParams != "" {
		req.GenerationParams = cfg.Mint.GenerationParams
	}
	req.RoyaltyRecipients = cfg.Mint.RoyaltyRecipients
	req.RoyaltyPercentages = cfg.Mint.RoyaltyPercentages
	if cfg.Options.Name != "" {
		req.Name = cfg.Options.Name
	}
	if cfg.Options.Description != "" {
		req.Description = cfg.Options.Description
	}
	return req
}

// senderAccount は --sender または SUI_SENDER_ADDRESS からアカウントを決めるのだ。未設定なら nil なのだ。
func senderAccount(cfg *config.Config) *sui.Account {
	addr := cfg.Options.Sender
	if addr == "" {
		addr = cfg.Kit.SenderAddress
	}
	if addr == "" {
		return nil
	}
	return &sui.Account{Address: addr}
}

// runUploadStep は UploadRunner を使って画像を保存するのだ
func runUploadStep(ctx context.Context, appCtx *builder.AppContext, imageRef string) (domain.UploadResult, error) {
	upRunner, err := appCtx.Workflow.BuildUploadRunner()
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("UploadRunnerの構築に失敗したのだ: %w", err)
	}
	res, err := upRunner.Run(ctx, imageRef)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("Walrus への保存に失敗したのだ: %w", err)
	}
	slog.Info("Walrus に保存したのだ！", "blob_id", res.BlobID, "url", res.URL, "ref_type", res.SuiRefType)
	return res, nil
}

// runMintStep は MintRunner を使って mint するのだ
func runMintStep(ctx context.Context, appCtx *builder.AppContext, req domain.MintRequest, wait bool) (domain.MintOutcome, error) {
	mintRunner, err := appCtx.Workflow.BuildMintRunner()
	if err != nil {
		return domain.MintOutcome{}, fmt.Errorf("MintRunnerの構築に失敗したのだ: %w", err)
	}
	account := senderAccount(appCtx.Config)

	var outcome domain.MintOutcome
	if wait {
		outcome, err = mintRunner.Run(ctx, req, account)
	} else {
		outcome, err = mintRunner.Submit(ctx, req, account)
	}
	if err != nil {
		return outcome, fmt.Errorf("mint に失敗したのだ: %w", err)
	}
	slog.Info("mint が完了したのだ！", "digest", outcome.TransactionDigest, "object_id", outcome.ObjectID, "status", outcome.Status)
	return outcome, nil
}

func saveJSON(ctx context.Context, appCtx *builder.AppContext, name string, v any) error {
	p, err := asset.ResolveOutputPath(appCtx.Options.OutputDir, name)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return appCtx.Writer.Write(ctx, p, bytes.NewReader(b), "application/json")
}
