package domain

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// AllowedExtensions はアップロードを受け付ける画像の拡張子です。
var AllowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// ImageInput はユーザーがアップロードした元画像です。
type ImageInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AllowedFile は拡張子が許可されたものかどうかを返します。
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	_, ok := AllowedExtensions[ext]
	return ok
}

// Validate はファイル名・拡張子・サイズを検証します。リモート呼び出しの前に必ず実行します。
func (in ImageInput) Validate(maxSize int64) error {
	if in.Filename == "" || len(in.Data) == 0 {
		return Validationf("No image provided")
	}
	if !AllowedFile(in.Filename) {
		return Validationf("File type not allowed. Please upload an image (PNG, JPG, JPEG, GIF)")
	}
	if maxSize > 0 && int64(len(in.Data)) > maxSize {
		return Validationf("File too large. Maximum size is %dMB", maxSize/(1024*1024))
	}
	return nil
}

// MimeType は宣言された Content-Type、拡張子、内容の順で MIME タイプを決定します。
func (in ImageInput) MimeType() string {
	if ct := strings.TrimSpace(in.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(in.Filename))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(in.Data)
}

// DataURI は画像を base64 の data URI に変換します。
func (in ImageInput) DataURI() string {
	return DataURI(in.MimeType(), in.Data)
}

// DataURI は MIME タイプとバイト列から data URI を組み立てます。
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
