package pipeline

import (
	"reflect"
	"testing"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
)

func TestBuildMintRequest(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.Kit.ModelVersionLabel = "sdxl-v1.0"
	cfg.Mint.StylePrompt = "anime"
	cfg.Mint.RoyaltyRecipients = []string{"0x1"}
	cfg.Mint.RoyaltyPercentages = []uint64{50}
	blob := domain.UploadResult{BlobID: "abc123", URL: "https://agg/v1/blobs/abc123"}

	t.Run("既定値", func(t *testing.T) {
		req := BuildMintRequest(cfg, "Hokage", "a prompt", blob)
		if req.Name != "The Hokage Avatar" || req.ModelVersion != "sdxl-v1.0" || req.GenerationParams != "{}" {
			t.Errorf("実際の値 %+v", req)
		}
		if req.StylePrompt != "anime" || !reflect.DeepEqual(req.RoyaltyPercentages, []uint64{50}) {
			t.Errorf("設定ファイルの既定値が反映されていません: %+v", req)
		}
		if !reflect.DeepEqual(req.AttributeValues(), []string{"Hokage", "sdxl-v1.0"}) {
			t.Errorf("実際の値 %v", req.AttributeValues())
		}
	})

	t.Run("フラグで上書き", func(t *testing.T) {
		c := *cfg
		c.Options.Name = "My Avatar"
		req := BuildMintRequest(&c, "Hokage", "a prompt", blob)
		if req.Name != "My Avatar" || req.Description != "An AI-generated anime avatar in the Hokage style." {
			t.Errorf("実際の値 %+v", req)
		}
	})
}

func TestSenderAccount(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.Kit.SenderAddress = ""
	if senderAccount(cfg) != nil {
		t.Error("未設定なら nil の想定です")
	}
	cfg.Kit.SenderAddress = "0xenv"
	if acc := senderAccount(cfg); acc == nil || acc.Address != "0xenv" {
		t.Errorf("実際の値 %+v", acc)
	}
	cfg.Options.Sender = "0xflag"
	if acc := senderAccount(cfg); acc == nil || acc.Address != "0xflag" {
		t.Errorf("フラグが優先される想定です: %+v", acc)
	}
}
