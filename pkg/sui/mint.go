package sui

import (
	"fmt"
	"strings"

	"github.com/shouni/go-nfter-kit/pkg/domain"
)

// fullRoyalty は受取人を指定しなかった場合に送信者へ割り当てる比率です。
const fullRoyalty = uint64(100)

// Account は接続中のウォレットアカウントです。
type Account struct {
	Address string
}

// MintCallOptions は mint 呼び出しの固定部分です。
type MintCallOptions struct {
	Module        string
	Function      string
	PaymentAmount uint64
	GasBudget     uint64
}

// BuildMintCall は MintRequest から署名前の mint トランザクションを組み立てます。
// account が nil（未接続）の場合は何も組み立てずに ErrNotConnected を返します。
func BuildMintCall(req domain.MintRequest, collectionID, packageID string, account *Account, opts MintCallOptions) (*Transaction, error) {
	if account == nil || strings.TrimSpace(account.Address) == "" {
		return nil, domain.ErrNotConnected
	}
	if packageID == "" || collectionID == "" {
		return nil, domain.Validationf("パッケージIDとコレクションIDは必須です")
	}
	if req.Blob.BlobID == "" {
		return nil, domain.Validationf("mint 対象の blob がありません")
	}

	recipients, percentages := req.RoyaltyRecipients, req.RoyaltyPercentages
	if len(recipients) == 0 {
		recipients = []string{account.Address}
		percentages = []uint64{fullRoyalty}
	}
	if err := checkRoyalties(recipients, percentages); err != nil {
		return nil, err
	}

	tx := NewTransaction(account.Address)
	tx.SetGasBudget(opts.GasBudget)

	payment := tx.SplitCoins(GasCoin(), tx.PureU64(opts.PaymentAmount))[0]

	collection := tx.Object(collectionID)
	name := tx.PureString(req.Name)
	description := tx.PureString(req.Description)

	recipientArgs := make([]Argument, 0, len(recipients))
	for _, addr := range recipients {
		a, err := tx.PureAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransaction, err)
		}
		recipientArgs = append(recipientArgs, a)
	}
	recipientVec := tx.MakeMoveVec(TypeAddress, recipientArgs)

	percentageArgs := make([]Argument, 0, len(percentages))
	for _, p := range percentages {
		percentageArgs = append(percentageArgs, tx.PureU64(p))
	}
	percentageVec := tx.MakeMoveVec(TypeU64, percentageArgs)

	basePrompt := tx.PureString(req.BasePrompt)
	stylePrompt := tx.PureString(req.StylePrompt)
	blobID := tx.PureString(req.Blob.BlobID)
	blobURL := tx.PureString(req.Blob.URL)
	generationPrompt := tx.PureString(req.GenerationPrompt)
	modelVersion := tx.PureString(req.ModelVersion)
	generationParams := tx.PureString(req.GenerationParams)

	attrNames := tx.MakeMoveVec(TypeString, stringArgs(tx, req.AttributeNames()))
	attrValues := tx.MakeMoveVec(TypeString, stringArgs(tx, req.AttributeValues()))

	tx.MoveCall(packageID, opts.Module, opts.Function,
		collection,
		name,
		description,
		recipientVec,
		percentageVec,
		basePrompt,
		stylePrompt,
		blobID,
		blobURL,
		generationPrompt,
		modelVersion,
		generationParams,
		attrNames,
		attrValues,
		payment,
	)
	return tx, nil
}

func stringArgs(tx *Transaction, values []string) []Argument {
	out := make([]Argument, len(values))
	for i, v := range values {
		out[i] = tx.PureString(v)
	}
	return out
}

// 受取人と比率は同じ長さで、比率の合計は 100 以下でなければなりません。
func checkRoyalties(recipients []string, percentages []uint64) error {
	if len(recipients) != len(percentages) {
		return domain.Validationf("ロイヤリティの受取人数 (%d) と比率の数 (%d) が一致しません", len(recipients), len(percentages))
	}
	var total uint64
	for _, p := range percentages {
		if p > fullRoyalty {
			return domain.Validationf("ロイヤリティ比率は 0〜100 で指定してください: %d", p)
		}
		total += p
	}
	if total > fullRoyalty {
		return domain.Validationf("ロイヤリティ比率の合計が 100 を超えています: %d", total)
	}
	return nil
}
