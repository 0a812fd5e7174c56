package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestImageInput_Validate(t *testing.T) {
	const maxSize = 16 * 1024 * 1024

	tests := []struct {
		name    string
		input   ImageInput
		wantErr bool
	}{
		{"2MB の JPEG は通ること", ImageInput{Filename: "me.jpg", Data: make([]byte, 2*1024*1024)}, false},
		{"大文字の拡張子も許可されること", ImageInput{Filename: "ME.PNG", Data: []byte{1}}, false},
		{"ちょうど上限サイズは通ること", ImageInput{Filename: "a.gif", Data: make([]byte, maxSize)}, false},
		{"20MB は拒否されること", ImageInput{Filename: "big.jpeg", Data: make([]byte, 20*1024*1024)}, true},
		{"テキストファイルは拒否されること", ImageInput{Filename: "notes.txt", Data: []byte("hi")}, true},
		{"拡張子なしは拒否されること", ImageInput{Filename: "image", Data: []byte{1}}, true},
		{"画像なしは拒否されること", ImageInput{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate(maxSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, 実際のエラー: %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("ErrValidation でラップされていません: %v", err)
			}
		})
	}
}

func TestImageInput_DataURI(t *testing.T) {
	t.Run("宣言された Content-Type を使うこと", func(t *testing.T) {
		in := ImageInput{Filename: "a.png", ContentType: "image/webp", Data: []byte("abc")}
		if got := in.DataURI(); got != "data:image/webp;base64,YWJj" {
			t.Errorf("実際の値 %s", got)
		}
	})

	t.Run("Content-Type が無ければ拡張子から決めること", func(t *testing.T) {
		in := ImageInput{Filename: "a.png", Data: []byte("abc")}
		if got := in.DataURI(); !strings.HasPrefix(got, "data:image/png;base64,") {
			t.Errorf("実際の値 %s", got)
		}
	})
}
