package domain

// GenerationResult はモデル呼び出し1回分の成果物です。
// ImageURLs と Scores は同じ長さで、同じ添字同士が対応します。
type GenerationResult struct {
	ImageURLs []string `json:"image_urls"`
	Role      string   `json:"role"`
	Scores    []int    `json:"scores"`
	Prompt    string   `json:"prompt,omitempty"`
}

// UploadResult は Blob ストアへの保存結果を正規化したものです。
// 新規保存と既存保存（重複排除）のどちらでも同じ形になります。
type UploadResult struct {
	BlobID     string `json:"blobId"`
	URL        string `json:"url"`
	SuiRef     string `json:"suiRef"`
	SuiRefType string `json:"suiRefType"`
	EndEpoch   int64  `json:"endEpoch"`
}

// SuiRefType の値です。
const (
	SuiRefTypeAlreadyCertified = "Previous Sui Certified Event"
	SuiRefTypeNewlyCreated     = "Associated Sui Object"
)
