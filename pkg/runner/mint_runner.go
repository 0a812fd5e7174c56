package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-nfter-kit/pkg/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"
)

// MintRunner は mint トランザクションを組み立て、署名・送信し、作成された NFT を確認します。
type MintRunner struct {
	cfg    config.Config
	signer sui.Signer
	poller MintPoller
}

// NewMintRunner は依存関係を注入して初期化します。
func NewMintRunner(cfg config.Config, signer sui.Signer, poller MintPoller) *MintRunner {
	return &MintRunner{cfg: cfg, signer: signer, poller: poller}
}

// Submit はトランザクションを組み立てて送信し、受理されたダイジェストを返します。
func (r *MintRunner) Submit(ctx context.Context, req domain.MintRequest, account *sui.Account) (domain.MintOutcome, error) {
	tx, err := sui.BuildMintCall(req, r.cfg.CollectionID, r.cfg.PackageID, account, sui.MintCallOptions{
		Module:        r.cfg.MoveModule,
		Function:      r.cfg.MoveFunction,
		PaymentAmount: r.cfg.PaymentAmount,
		GasBudget:     r.cfg.GasBudget,
	})
	if err != nil {
		return domain.MintOutcome{}, err
	}

	slog.InfoContext(ctx, "Submitting mint transaction", "target", r.cfg.MintTarget(), "sender", account.Address, "blob_id", req.Blob.BlobID)
	digest, err := r.signer.SignAndExecute(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) || errors.Is(err, domain.ErrTransaction) {
			return domain.MintOutcome{}, err
		}
		return domain.MintOutcome{}, fmt.Errorf("%w: %w", domain.ErrTransaction, err)
	}
	slog.InfoContext(ctx, "Mint transaction accepted", "digest", digest)
	return domain.MintOutcome{TransactionDigest: digest, Status: domain.MintSubmitted}, nil
}

// Run は送信から確認までを行います。
// 確認が上限回数で打ち切られた場合はエラーにせず、Status が exhausted_retries の結果を返します。
func (r *MintRunner) Run(ctx context.Context, req domain.MintRequest, account *sui.Account) (domain.MintOutcome, error) {
	submitted, err := r.Submit(ctx, req, account)
	if err != nil {
		return domain.MintOutcome{}, err
	}

	outcome, err := r.poller.Poll(ctx, submitted.TransactionDigest, account.Address)
	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, domain.ErrPollingExhausted):
		slog.WarnContext(ctx, "Mint submitted but the NFT object could not be confirmed", "digest", outcome.TransactionDigest, "attempts", outcome.Attempts)
		return outcome, nil
	default:
		slog.ErrorContext(ctx, "Mint confirmation failed", "digest", submitted.TransactionDigest, "error", err)
		outcome.TransactionDigest = submitted.TransactionDigest
		return outcome, err
	}
}
