package sui

import (
	"bytes"
	"testing"
)

func TestBCSEncoding(t *testing.T) {
	t.Run("u64 はリトルエンディアン", func(t *testing.T) {
		got := encodeU64(1_000_000)
		want := []byte{0x40, 0x42, 0x0f, 0, 0, 0, 0, 0}
		if !bytes.Equal(got, want) {
			t.Errorf("期待値 %x, 実際の値 %x", want, got)
		}
	})

	t.Run("文字列は ULEB128 長さ接頭辞付き", func(t *testing.T) {
		got := encodeString("Hokage")
		if got[0] != 6 || string(got[1:]) != "Hokage" {
			t.Errorf("実際の値 %x", got)
		}
		long := encodeString(string(make([]byte, 200)))
		if long[0] != 0xc8 || long[1] != 0x01 || len(long) != 202 {
			t.Errorf("200 バイトの長さ接頭辞が不正です: %x", long[:2])
		}
	})

	t.Run("アドレスは 32 バイトに左詰め", func(t *testing.T) {
		got, err := encodeAddress("0x2")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(got) != AddressLength || got[31] != 2 {
			t.Errorf("実際の値 %x", got)
		}
	})

	t.Run("不正なアドレス", func(t *testing.T) {
		for _, in := range []string{"", "0x", "0xzz", "0x" + string(bytes.Repeat([]byte("a"), 65))} {
			if _, err := NormalizeAddress(in); err == nil {
				t.Errorf("%q はエラーになる想定です", in)
			}
		}
	})
}
