package workflow

import (
	"context"
	"sync"

	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"
)

// Stage は同時に1つだけ実行される工程の種類です。
type Stage string

const (
	StageGenerate Stage = "generate"
	StageUpload   Stage = "upload"
	StageMint     Stage = "mint"
)

// Ticket は Begin で開始した1回の実行を識別します。
type Ticket struct {
	stage Stage
	seq   uint64
}

type flight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Session は1人の利用者の接続状態と、工程ごとの実行中の処理を管理します。
// 同じ工程で新しい実行を開始すると、実行中の古い処理はキャンセルされ、その結果は破棄されます。
type Session struct {
	ID string

	mu             sync.Mutex
	account        *sui.Account
	seq            uint64
	inflight       map[Stage]flight
	lastGeneration *domain.GenerationResult
	lastUpload     *domain.UploadResult
	lastMint       *domain.MintOutcome
}

// NewSession は空のセッションを作成します。
func NewSession(id string) *Session {
	return &Session{ID: id, inflight: make(map[Stage]flight)}
}

// Connect はアカウントを接続します。
func (s *Session) Connect(address string) error {
	norm, err := sui.NormalizeAddress(address)
	if err != nil {
		return domain.Validationf("%v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = &sui.Account{Address: norm}
	return nil
}

// Disconnect はアカウントの接続を解除します。
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = nil
}

// Account は接続中のアカウントを返します。未接続の場合は nil です。
func (s *Session) Account() *sui.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return nil
	}
	acc := *s.account
	return &acc
}

// Begin は stage の新しい実行を開始します。同じ stage の実行中の処理はキャンセルされます。
// 返された context は Commit または古い実行として置き換えられるまで有効です。
func (s *Session) Begin(parent context.Context, stage Stage) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.inflight[stage]; ok {
		prev.cancel()
	}
	s.seq++
	s.inflight[stage] = flight{seq: s.seq, cancel: cancel}
	return ctx, Ticket{stage: stage, seq: s.seq}
}

// Commit は実行を終了します。t がまだ最新の実行であれば true を返します。
// false の場合、その実行は新しい実行に置き換えられているため結果を反映してはいけません。
func (s *Session) Commit(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.inflight[t.stage]
	if !ok || cur.seq != t.seq {
		return false
	}
	cur.cancel()
	delete(s.inflight, t.stage)
	return true
}

// InFlight は stage の処理が実行中かどうかを返します。
func (s *Session) InFlight(stage Stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[stage]
	return ok
}

// Close は実行中の処理をすべてキャンセルします。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for stage, f := range s.inflight {
		f.cancel()
		delete(s.inflight, stage)
	}
}

// LastGeneration は最後に反映された生成結果を返します。
func (s *Session) LastGeneration() (domain.GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastGeneration == nil {
		return domain.GenerationResult{}, false
	}
	return *s.lastGeneration, true
}

// LastUpload は最後に反映されたアップロード結果を返します。
func (s *Session) LastUpload() (domain.UploadResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastUpload == nil {
		return domain.UploadResult{}, false
	}
	return *s.lastUpload, true
}

// LastMint は最後に反映された mint 結果を返します。
func (s *Session) LastMint() (domain.MintOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastMint == nil {
		return domain.MintOutcome{}, false
	}
	return *s.lastMint, true
}

// 新しい生成結果は以前のアップロード・mint の結果を無効にします。
func (s *Session) record(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r := v.(type) {
	case domain.GenerationResult:
		s.lastGeneration = &r
		s.lastUpload = nil
		s.lastMint = nil
	case domain.UploadResult:
		s.lastUpload = &r
		s.lastMint = nil
	case domain.MintOutcome:
		s.lastMint = &r
	}
}

// Run は session 上で stage の処理 fn を実行します。
// 実行中に同じ stage の新しい実行が始まった場合は ErrSuperseded を返し、結果は反映しません。
func Run[T any](ctx context.Context, s *Session, stage Stage, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	runCtx, ticket := s.Begin(ctx, stage)
	res, err := fn(runCtx)
	if !s.Commit(ticket) {
		return zero, domain.ErrSuperseded
	}
	if err != nil {
		return res, err
	}
	s.record(res)
	return res, nil
}
