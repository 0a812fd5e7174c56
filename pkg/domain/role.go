package domain

import (
	"encoding/json"
	"fmt"
)

// ScoreRange はロールごとに割り当てられるスコアの閉区間 [Min, Max] です。
type ScoreRange struct {
	Min int
	Max int
}

// Valid は 0 <= Min <= Max <= 100 を満たすかどうかを返します。
func (r ScoreRange) Valid() bool {
	return r.Min >= 0 && r.Min <= r.Max && r.Max <= 100
}

// Contains は score が区間に含まれるかどうかを返します。
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// MarshalJSON は [min, max] の2要素配列として書き出します。
func (r ScoreRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Min, r.Max})
}

// UnmarshalJSON は [min, max] 形式を読み込みます。
func (r *ScoreRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("score は [min, max] 形式である必要があります: %w", err)
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// Role は変身先キャラクターの種類と、その出現重み・スコア帯・プロンプトを保持します。
type Role struct {
	Label  string     `json:"label"`
	Weight int        `json:"weight"`
	Score  ScoreRange `json:"score"`
	Prompt string     `json:"prompt"`
}

// Validate は Role の不変条件を検証します。
func (r Role) Validate() error {
	if r.Label == "" {
		return fmt.Errorf("role label が空です")
	}
	if r.Weight <= 0 {
		return fmt.Errorf("role %q の weight は正の整数である必要があります: %d", r.Label, r.Weight)
	}
	if !r.Score.Valid() {
		return fmt.Errorf("role %q の score 範囲が不正です: [%d, %d]", r.Label, r.Score.Min, r.Score.Max)
	}
	return nil
}

// Roles はロールの列挙順を保持したカタログです。
type Roles []Role

// Find はラベルが完全一致するロールを返します。
func (rs Roles) Find(label string) (Role, bool) {
	for _, r := range rs {
		if r.Label == label {
			return r, true
		}
	}
	return Role{}, false
}

// TotalWeight は全ロールの重みの合計です。
func (rs Roles) TotalWeight() int {
	total := 0
	for _, r := range rs {
		total += r.Weight
	}
	return total
}

// Labels はロールのラベルを列挙順で返します。
func (rs Roles) Labels() []string {
	labels := make([]string, 0, len(rs))
	for _, r := range rs {
		labels = append(labels, r.Label)
	}
	return labels
}

// Validate はカタログ全体の不変条件を検証します。
func (rs Roles) Validate() error {
	if len(rs) == 0 {
		return fmt.Errorf("ロールが1件も定義されていません")
	}
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Label]; dup {
			return fmt.Errorf("role %q が重複しています", r.Label)
		}
		seen[r.Label] = struct{}{}
	}
	return nil
}

// DefaultRoles は組み込みのロールカタログです。
var DefaultRoles = Roles{
	{
		Label:  "civilian villager",
		Weight: 40,
		Score:  ScoreRange{Min: 5, Max: 35},
		Prompt: "Naruto-style anime portrait of a Hidden Leaf Village civilian. Close-up head and shoulders. Wearing modern ninja-world casual clothes like a hooded vest, layered shirt, or light tunic in greens, browns, or muted colors. No forehead protector. Hair should be practical or spiky. Calm or cheerful expression. Background: wooden buildings, hanging signs, laundry lines, or village streets, softly blurred with warm lighting.",
	},
	{
		Label:  "young Genin",
		Weight: 20,
		Score:  ScoreRange{Min: 30, Max: 55},
		Prompt: "Close-up anime portrait of a newly graduated ninja. Wearing a headband, fingerless gloves, and a short-sleeve tactical shirt. Wide, hopeful eyes. Background: sunny training ground with trees and logs, lightly blurred.",
	},
	{
		Label:  "Chūnin",
		Weight: 15,
		Score:  ScoreRange{Min: 45, Max: 65},
		Prompt: "Close-up head-and-shoulders portrait of a mid-ranked ninja. Wearing green tactical flak jacket, serious but kind expression. Headband clearly visible. Background: village street near mission office, stylized blur.",
	},
	{
		Label:  "elite Jōnin",
		Weight: 10,
		Score:  ScoreRange{Min: 55, Max: 75},
		Prompt: "Anime portrait of an elite ninja. Wearing flak vest over long-sleeve black ninja gear, with visible forehead protector. Sharp, confident look. Background: distant mountains and trees, artistically blurred.",
	},
	{
		Label:  "Rogue ninja",
		Weight: 4,
		Score:  ScoreRange{Min: 60, Max: 80},
		Prompt: "Anime portrait of a rogue ninja. Close-up face and shoulders. Wearing a slashed headband, torn cloak, grim expression. Background: rocky ruins or broken bridge, cloudy sky, desaturated blur.",
	},
	{
		Label:  "Akatsuki member",
		Weight: 3,
		Score:  ScoreRange{Min: 75, Max: 95},
		Prompt: "Close-up anime portrait of a mysterious group member. Wearing iconic black cloak with red clouds, slashed headband, and intense red or purple eyes. Background: lightning-lit sky and crumbled temple in far distance, blurred.",
	},
	{
		Label:  "Anbu Black Ops",
		Weight: 3,
		Score:  ScoreRange{Min: 70, Max: 90},
		Prompt: "Close-up portrait of a special ops ninja. Wearing black armor, flak vest, and a cat-style mask held at their side. Headband visible. Eyes serious and alert. Background: high rooftops at night, village skyline behind mist.",
	},
	{
		Label:  "Hidden Leaf teacher",
		Weight: 3,
		Score:  ScoreRange{Min: 50, Max: 70},
		Prompt: "Anime portrait of an academy teacher. Wearing a dark tunic with scroll pouch, holding a chalk or lesson scroll. Warm, kind expression. Background: wooden training yard fence and academy windows, softly blurred.",
	},
	{
		Label:  "Hokage",
		Weight: 2,
		Score:  ScoreRange{Min: 90, Max: 100},
		Prompt: "Close-up anime portrait of a village leader. Wearing the traditional white cloak with red flame trim and leader's headpiece. Calm and wise smile. Background: the monument of past leaders, softly blurred.",
	},
}
