package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	replicatego "github.com/replicate/replicate-go"
	"golang.org/x/sync/errgroup"
)

// ItemKind はモデル出力の1要素の形を表します。
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemText             // 文字列 (URL または data URI)
	ItemObject           // {"url": "..."} 形式のオブジェクト
	ItemStream           // 内容を読み出して data URI に変換するストリーム
)

// Opener はストリーム要素の中身と Content-Type を開きます。
type Opener func(ctx context.Context) (io.ReadCloser, string, error)

// Item はモデル出力の1要素です。Kind に応じて Text / URL / Open のいずれかが有効です。
type Item struct {
	Kind ItemKind
	Text string
	URL  string
	Open Opener
}

// Output はモデル出力の形を境界で一度だけ判別した結果です。
// List は上流が配列を返したかどうかで、単一結果の場合 Items は常に1要素です。
type Output struct {
	List  bool
	Items []Item
}

// TextItem は文字列要素を作成します。
func TextItem(s string) Item { return Item{Kind: ItemText, Text: s} }

// ObjectItem は url フィールドを持つオブジェクト要素を作成します。
func ObjectItem(url string) Item { return Item{Kind: ItemObject, URL: url} }

// StreamItem はストリーム要素を作成します。
func StreamItem(open Opener) Item { return Item{Kind: ItemStream, Open: open} }

// DecodeOutput は予測結果の output フィールドの JSON を Output に変換します。
func DecodeOutput(raw json.RawMessage) Output {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return Output{Items: []Item{{Kind: ItemUnknown}}}
	}
	return DecodeValue(v)
}

// DecodeValue はデコード済みの output の値を Output に変換します。
func DecodeValue(v any) Output {
	if arr, ok := v.([]any); ok {
		items := make([]Item, 0, len(arr))
		for _, e := range arr {
			items = append(items, decodeItem(e))
		}
		return Output{List: true, Items: items}
	}
	return Output{Items: []Item{decodeItem(v)}}
}

func decodeItem(v any) Item {
	switch t := v.(type) {
	case string:
		return TextItem(t)
	case map[string]any:
		if u, ok := t["url"].(string); ok {
			return ObjectItem(u)
		}
	case *replicatego.FileOutput:
		if t != nil {
			return StreamItem(func(context.Context) (io.ReadCloser, string, error) {
				return t.ReadCloser, "", nil
			})
		}
	}
	return Item{Kind: ItemUnknown}
}

// Normalize は Output を URL 文字列のフラットなリストに変換します。
// ストリーム要素は全体をバッファして base64 の data URI にし、上流の順序を保ちます。
// 判別できない要素は空文字列になります。
func Normalize(ctx context.Context, out Output) ([]string, error) {
	urls := make([]string, len(out.Items))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, item := range out.Items {
		switch item.Kind {
		case ItemText:
			urls[i] = item.Text
		case ItemObject:
			urls[i] = item.URL
		case ItemStream:
			eg.Go(func() error {
				uri, err := bufferStream(egCtx, item.Open)
				if err != nil {
					return fmt.Errorf("出力 %d の読み込みに失敗しました: %w", i+1, err)
				}
				urls[i] = uri
				return nil
			})
		default:
			urls[i] = ""
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func bufferStream(ctx context.Context, open Opener) (string, error) {
	if open == nil {
		return "", fmt.Errorf("stream opener が nil です")
	}
	rc, contentType, err := open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return domain.DataURI(contentType, data), nil
}
