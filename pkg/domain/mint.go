package domain

import (
	"fmt"
)

// DefaultGenerationParams は生成パラメータ未指定時に記録される値です。
const DefaultGenerationParams = "{}"

// MintRequest は mint トランザクション1回分の入力です。
type MintRequest struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	BasePrompt         string       `json:"basePrompt"`
	StylePrompt        string       `json:"stylePrompt"`
	GenerationPrompt   string       `json:"generationPrompt"`
	ModelVersion       string       `json:"modelVersion"`
	GenerationParams   string       `json:"generationParams"`
	Role               string       `json:"role"`
	RoyaltyRecipients  []string     `json:"royaltyRecipients,omitempty"`
	RoyaltyPercentages []uint64     `json:"royaltyPercentages,omitempty"`
	Blob               UploadResult `json:"blob"`
}

// NewMintRequest はロールと生成結果からフォームの初期値を埋めた MintRequest を作成します。
func NewMintRequest(role, prompt, modelVersion string, blob UploadResult) MintRequest {
	return MintRequest{
		Name:             fmt.Sprintf("The %s Avatar", role),
		Description:      fmt.Sprintf("An AI-generated anime avatar in the %s style.", role),
		GenerationPrompt: prompt,
		ModelVersion:     modelVersion,
		GenerationParams: DefaultGenerationParams,
		Role:             role,
		Blob:             blob,
	}
}

// AttributeNames はオンチェーン属性の名前リストです。
func (r MintRequest) AttributeNames() []string {
	return []string{"Role", "Model Version"}
}

// AttributeValues は AttributeNames と同じ順序の属性値リストです。
func (r MintRequest) AttributeValues() []string {
	return []string{r.Role, r.ModelVersion}
}

// MintStatus は mint 確認処理の状態です。
type MintStatus string

const (
	MintSubmitted        MintStatus = "submitted"
	MintPolling          MintStatus = "polling"
	MintConfirmed        MintStatus = "confirmed"
	MintExhaustedRetries MintStatus = "exhausted_retries"
	MintFailed           MintStatus = "failed"
)

// MintOutcome は mint の結果です。ObjectID は確認できるまで空のままです。
type MintOutcome struct {
	TransactionDigest string     `json:"transactionDigest"`
	ObjectID          string     `json:"objectId,omitempty"`
	Status            MintStatus `json:"status"`
	Attempts          int        `json:"attempts"`
}
