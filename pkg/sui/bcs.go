package sui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/mystenbcs"
	"github.com/block-vision/sui-go-sdk/transaction"
	"github.com/block-vision/sui-go-sdk/utils"
)

// AddressLength は Sui アドレスのバイト長です。
const AddressLength = 32

// Pure 引数の BCS エンコード。mint 呼び出しで使う型 (u64, address, string) のみ扱います。

func encodeU64(v uint64) []byte {
	return mystenbcs.MustMarshal(v)
}

func encodeString(s string) []byte {
	return mystenbcs.MustMarshal(s)
}

// encodeAddress は固定長 32 バイトのまま (長さ接頭辞なし) で返します。
func encodeAddress(addr string) ([]byte, error) {
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return nil, err
	}
	b, err := transaction.ConvertSuiAddressStringToBytes(models.SuiAddress(norm))
	if err != nil {
		return nil, fmt.Errorf("不正な Sui アドレスです: %q: %w", addr, err)
	}
	return b[:], nil
}

// NormalizeAddress は 0x 付き小文字 64 桁の形式に揃えます。
func NormalizeAddress(addr string) (string, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	if s == "" || len(s) > AddressLength*2 {
		return "", fmt.Errorf("不正な Sui アドレスです: %q", addr)
	}
	if _, err := hex.DecodeString(strings.Repeat("0", len(s)%2) + s); err != nil {
		return "", fmt.Errorf("不正な Sui アドレスです: %q", addr)
	}
	return string(utils.NormalizeSuiAddress(s)), nil
}
