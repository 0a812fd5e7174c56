package builder

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
)

func TestBuildManager(t *testing.T) {
	t.Run("既定のロールカタログ", func(t *testing.T) {
		cfg := config.LoadConfig()
		cfg.RolesFile = ""
		m, err := BuildManager(cfg, http.DefaultClient, nil, nil, nil)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(m.Roles()) != len(domain.DefaultRoles) {
			t.Errorf("期待値 %d, 実際の値 %d", len(domain.DefaultRoles), len(m.Roles()))
		}
	})

	t.Run("フラグのロールファイルが優先", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roles.json")
		body := `[{"label":"Sage","weight":1,"score":[80,90],"prompt":"a sage"}]`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := config.LoadConfig()
		cfg.RolesFile = "does-not-exist.json"
		cfg.Options.RolesFile = path
		m, err := BuildManager(cfg, http.DefaultClient, nil, nil, nil)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got := m.Roles().Labels(); len(got) != 1 || got[0] != "Sage" {
			t.Errorf("実際の値 %v", got)
		}
	})

	t.Run("不正なロールファイル", func(t *testing.T) {
		cfg := config.LoadConfig()
		cfg.Options.RolesFile = filepath.Join(t.TempDir(), "missing.json")
		if _, err := BuildManager(cfg, http.DefaultClient, nil, nil, nil); err == nil {
			t.Error("エラーになる想定です")
		}
	})
}
