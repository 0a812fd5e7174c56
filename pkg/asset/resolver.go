package asset

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は生成物を格納するデフォルトのディレクトリ名です。
	DefaultOutputDir = "output"
	// DefaultAvatarFileName は生成されたアバター画像の共通のベースファイル名です。
	DefaultAvatarFileName = "avatar.png"
	// DefaultResultFileName は生成結果 (GenerationResult) を保存する JSON ファイル名です。
	DefaultResultFileName = "generation.json"
	// DefaultMintFileName は mint 結果を保存する JSON ファイル名です。
	DefaultMintFileName = "mint.json"
)

// AvatarFileRegex はアバター画像 (avatar_1.png 等) に一致します
var AvatarFileRegex = createIndexedRegex(DefaultAvatarFileName)

// mimeExtensions は保存時に MIME タイプから選ぶ拡張子です。
var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ResolveBaseURL は、入力パス（URLまたはローカルパス）から
// 親ディレクトリのパスを解決し、末尾がセパレータで終わるように正規化します。
func ResolveBaseURL(rawPath string) string {
	return urlpath.ResolveBaseURL(rawPath)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入します。
// 例: "path/to/avatar.png", 1 -> "path/to/avatar_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// AvatarPath は outputDir 配下の index 番目のアバター画像パスを返します。
// 拡張子は mimeType に合わせて差し替えます。
func AvatarPath(outputDir string, index int, mimeType string) (string, error) {
	basePath, err := ResolveOutputPath(outputDir, DefaultAvatarFileName)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	indexed, err := GenerateIndexedPath(basePath, index)
	if err != nil {
		return "", fmt.Errorf("アバター %d の出力パス生成に失敗しました: %w", index, err)
	}
	return strings.TrimSuffix(indexed, path.Ext(indexed)) + ExtensionForMIME(mimeType), nil
}

// ExtensionForMIME は MIME タイプに対応する拡張子を返します。不明な場合は .png です。
func ExtensionForMIME(mimeType string) string {
	mt, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	if ext, ok := mimeExtensions[strings.TrimSpace(mt)]; ok {
		return ext
	}
	return ".png"
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "avatar.png" -> ^avatar_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
