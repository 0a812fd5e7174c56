package walrus

import (
	"encoding/json"
	"fmt"

	"github.com/shouni/go-nfter-kit/pkg/domain"
)

// storeResponse はパブリッシャーの PUT 応答です。alreadyCertified と newlyCreated のどちらか一方だけを持ちます。
type storeResponse struct {
	AlreadyCertified *alreadyCertified `json:"alreadyCertified,omitempty"`
	NewlyCreated     *newlyCreated     `json:"newlyCreated,omitempty"`
}

type alreadyCertified struct {
	BlobID   string `json:"blobId"`
	EndEpoch int64  `json:"endEpoch"`
	Event    struct {
		TxDigest string `json:"txDigest"`
	} `json:"event"`
}

type newlyCreated struct {
	BlobObject struct {
		ID      string `json:"id"`
		BlobID  string `json:"blobId"`
		Storage struct {
			EndEpoch int64 `json:"endEpoch"`
		} `json:"storage"`
	} `json:"blobObject"`
}

// normalize は2種類の応答形を UploadResult に変換します。URL は常に aggregator から導出します。
func normalize(body []byte, aggregatorURL string) (domain.UploadResult, error) {
	var resp storeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w: Invalid response from Walrus: %w", domain.ErrUpload, err)
	}

	var res domain.UploadResult
	switch {
	case resp.AlreadyCertified != nil && resp.NewlyCreated == nil:
		ac := resp.AlreadyCertified
		res = domain.UploadResult{
			BlobID:     ac.BlobID,
			SuiRef:     ac.Event.TxDigest,
			SuiRefType: domain.SuiRefTypeAlreadyCertified,
			EndEpoch:   ac.EndEpoch,
		}
	case resp.NewlyCreated != nil && resp.AlreadyCertified == nil:
		obj := resp.NewlyCreated.BlobObject
		res = domain.UploadResult{
			BlobID:     obj.BlobID,
			SuiRef:     obj.ID,
			SuiRefType: domain.SuiRefTypeNewlyCreated,
			EndEpoch:   obj.Storage.EndEpoch,
		}
	default:
		return domain.UploadResult{}, fmt.Errorf("%w: Invalid response from Walrus", domain.ErrUpload)
	}

	if res.BlobID == "" {
		return domain.UploadResult{}, fmt.Errorf("%w: Walrus response has no blobId", domain.ErrUpload)
	}
	res.URL = BlobURL(aggregatorURL, res.BlobID)
	return res, nil
}
