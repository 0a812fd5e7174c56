package sui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"
)

// TransactionFetcher はトランザクションの effects/objectChanges を取得します。
type TransactionFetcher interface {
	GetTransactionBlock(ctx context.Context, digest string) (TransactionBlock, error)
}

// SleepFunc は d だけ待機します。ctx が先に終了した場合はそのエラーを返します。
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller は mint トランザクションで作成された NFT オブジェクトを確認します。
// 試行は逐次で、失敗した試行の後にだけ固定間隔の待機を挟みます。
type Poller struct {
	fetcher     TransactionFetcher
	nftType     string
	interval    time.Duration
	maxAttempts int
	sleep       SleepFunc
}

// PollerOption は Poller の設定を変更します。
type PollerOption func(*Poller)

// WithSleep は待機処理を差し替えます。
func WithSleep(fn SleepFunc) PollerOption {
	return func(p *Poller) { p.sleep = fn }
}

// NewPoller は nftType の作成を待つ Poller を作成します。
func NewPoller(fetcher TransactionFetcher, nftType string, interval time.Duration, maxAttempts int, opts ...PollerOption) *Poller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	p := &Poller{
		fetcher:     fetcher,
		nftType:     nftType,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll は digest のトランザクションを確認し、作成されたオブジェクト ID を解決します。
//
// 結果は次の3通りです。
//   - Confirmed: ObjectID が設定され、エラーは nil
//   - ExhaustedRetries: ErrPollingExhausted を返します。トランザクション自体は送信済みです
//   - Failed: 一時的でない取得エラー。ErrPollingFailed でラップして返します
func (p *Poller) Poll(ctx context.Context, digest, sender string) (domain.MintOutcome, error) {
	outcome := domain.MintOutcome{TransactionDigest: digest, Status: domain.MintPolling}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		outcome.Attempts = attempt

		block, err := p.fetcher.GetTransactionBlock(ctx, digest)
		switch {
		case err == nil:
			if block.Effects != nil && block.Effects.Status.Status == "failure" {
				outcome.Status = domain.MintFailed
				return outcome, fmt.Errorf("%w: transaction %s failed on chain: %s", domain.ErrPollingFailed, digest, block.Effects.Status.Error)
			}
			if id := p.findCreatedObject(block, sender); id != "" {
				outcome.ObjectID = id
				outcome.Status = domain.MintConfirmed
				slog.InfoContext(ctx, "NFT の作成を確認しました", "digest", digest, "object_id", id, "attempt", attempt)
				return outcome, nil
			}
			slog.DebugContext(ctx, "作成オブジェクトがまだ見つかりません", "digest", digest, "attempt", attempt)
		case isTransient(err):
			slog.DebugContext(ctx, "トランザクションはまだインデックスされていません", "digest", digest, "attempt", attempt)
		default:
			outcome.Status = domain.MintFailed
			return outcome, fmt.Errorf("%w: %w", domain.ErrPollingFailed, err)
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			outcome.Status = domain.MintFailed
			return outcome, fmt.Errorf("%w: %w", domain.ErrPollingFailed, err)
		}
	}

	outcome.Status = domain.MintExhaustedRetries
	slog.WarnContext(ctx, "NFT の作成を確認できませんでした", "digest", digest, "attempts", outcome.Attempts)
	return outcome, fmt.Errorf("%w: digest=%s attempts=%d", domain.ErrPollingExhausted, digest, outcome.Attempts)
}

// findCreatedObject は型タグが一致する作成オブジェクトを優先し、なければ送信者所有の作成オブジェクトを返します。
func (p *Poller) findCreatedObject(block TransactionBlock, sender string) string {
	for _, ch := range block.ObjectChanges {
		if ch.Type == "created" && ch.ObjectType == p.nftType {
			return ch.ObjectID
		}
	}
	if block.Effects == nil || sender == "" {
		return ""
	}
	want, err := NormalizeAddress(sender)
	if err != nil {
		return ""
	}
	for _, ref := range block.Effects.Created {
		if ref.Owner.AddressOwner == "" {
			continue
		}
		if got, err := NormalizeAddress(ref.Owner.AddressOwner); err == nil && got == want {
			return ref.Reference.ObjectID
		}
	}
	return ""
}

func isTransient(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.NotFound()
}
