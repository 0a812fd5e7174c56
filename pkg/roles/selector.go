package roles

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/shouni/go-nfter-kit/pkg/domain"
)

// Resolution は選択されたロールのラベル・プロンプト・スコア帯です。
type Resolution struct {
	Label      string
	Prompt     string
	ScoreRange domain.ScoreRange
}

// Selector はロールの解決とスコア生成を担当します。
// *rand.Rand はゴルーチンセーフではないため、mu で保護します。
type Selector struct {
	roles domain.Roles
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewSelector は検証済みのロールカタログと乱数源から Selector を作成します。
// rng が nil の場合は時刻ベースのシードで初期化します。
func NewSelector(roles domain.Roles, rng *rand.Rand) (*Selector, error) {
	if err := roles.Validate(); err != nil {
		return nil, fmt.Errorf("ロールカタログが不正です: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	copied := make(domain.Roles, len(roles))
	copy(copied, roles)
	return &Selector{roles: copied, rng: rng}, nil
}

// Roles はカタログのコピーを返します。
func (s *Selector) Roles() domain.Roles {
	copied := make(domain.Roles, len(s.roles))
	copy(copied, s.roles)
	return copied
}

// Resolve はラベルが完全一致すればそのロールを、それ以外（空・不一致）なら重み付き抽選の結果を返します。
func (s *Selector) Resolve(selectedLabel string) Resolution {
	if role, ok := s.roles.Find(selectedLabel); ok {
		return toResolution(role)
	}
	return toResolution(s.pickWeighted())
}

// pickWeighted は [0, totalWeight) の一様乱数から列挙順に重みを引いていき、
// 残りが 0 以下になったロールを選びます。
func (s *Selector) pickWeighted() domain.Role {
	total := float64(s.roles.TotalWeight())

	s.mu.Lock()
	remainder := s.rng.Float64() * total
	s.mu.Unlock()

	for _, role := range s.roles {
		remainder -= float64(role.Weight)
		if remainder <= 0 {
			return role
		}
	}
	// 重みが正である限り到達しない
	return s.roles[len(s.roles)-1]
}

// GenerateScores は count 個のスコアを [Min, Max] の範囲で独立に生成します。
func (s *Selector) GenerateScores(scoreRange domain.ScoreRange, count int) []int {
	if count <= 0 {
		return []int{}
	}
	span := scoreRange.Max - scoreRange.Min + 1
	scores := make([]int, count)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range scores {
		scores[i] = scoreRange.Min + s.rng.IntN(span)
	}
	return scores
}

func toResolution(role domain.Role) Resolution {
	return Resolution{
		Label:      role.Label,
		Prompt:     role.Prompt,
		ScoreRange: role.Score,
	}
}

// ParseRoles は JSON 配列からロールカタログを読み込み、不変条件を検証します。
func ParseRoles(data []byte) (domain.Roles, error) {
	var rs domain.Roles
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("ロール定義のJSONパースに失敗しました: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// LoadRoles は指定されたファイルパスからロールカタログを読み込みます。
// path が空の場合は組み込みのカタログを返します。
func LoadRoles(path string) (domain.Roles, error) {
	if path == "" {
		return domain.DefaultRoles, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ロールファイルの読み込みに失敗しました: %w", err)
	}
	return ParseRoles(data)
}
