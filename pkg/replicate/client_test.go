package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	"github.com/shouni/go-http-kit/httpkit"
)

func newTestFiles() *httpkit.Client {
	return httpkit.New(5*time.Second,
		httpkit.WithSkipNetworkValidation(true),
		httpkit.WithInitialInterval(time.Millisecond),
	)
}

func TestClient_Run_ImmediateSuccess(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predictions" || r.Method != http.MethodPost {
			t.Errorf("想定外のリクエスト: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization ヘッダーが不正です: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://x/1.png","https://x/2.png"]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/v1", APIToken: "tok"}, srv.Client(), nil)
	out, err := c.Run(context.Background(), "bytedance/pulid:v123", map[string]any{"prompt": "p"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if gotBody["version"] != "v123" {
		t.Errorf("version が送られていません: %v", gotBody)
	}
	if input, _ := gotBody["input"].(map[string]any); input["prompt"] != "p" {
		t.Errorf("input が送られていません: %v", gotBody)
	}
	urls, _ := Normalize(context.Background(), out)
	if !reflect.DeepEqual(urls, []string{"https://x/1.png", "https://x/2.png"}) {
		t.Errorf("実際の値 %q", urls)
	}
}

func TestClient_Run_PollsUntilTerminal(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"id":"p1","status":"starting"}`))
		case r.URL.Path == "/v1/predictions/p1":
			if polls.Add(1) < 3 {
				_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":"https://x/only.png"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/v1", APIToken: "tok", PollInterval: time.Millisecond}, srv.Client(), nil)
	out, err := c.Run(context.Background(), "owner/model:v1", nil)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if polls.Load() != 3 {
		t.Errorf("期待ポーリング回数 3, 実際の回数 %d", polls.Load())
	}
	if out.List || len(out.Items) != 1 || out.Items[0].Text != "https://x/only.png" {
		t.Errorf("出力が不正です: %+v", out)
	}
}

func TestClient_Run_ModelWithoutVersionUsesModelEndpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":"x"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/v1", APIToken: "tok"}, srv.Client(), nil)
	if _, err := c.Run(context.Background(), "owner/model", nil); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if path != "/v1/models/owner/model/predictions" {
		t.Errorf("実際のパス %s", path)
	}
}

func TestClient_Run_Errors(t *testing.T) {
	t.Run("トークンが無ければリクエストしないこと", func(t *testing.T) {
		var called atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called.Store(true) }))
		defer srv.Close()

		c := NewClient(Options{BaseURL: srv.URL}, srv.Client(), nil)
		_, err := c.Run(context.Background(), "owner/m:v", nil)
		if !errors.Is(err, domain.ErrInvocation) {
			t.Errorf("ErrInvocation が返されていません: %v", err)
		}
		if called.Load() {
			t.Error("トークン無しでリクエストが送られました")
		}
	})

	t.Run("モデル指定が不正ならリクエストしないこと", func(t *testing.T) {
		c := NewClient(Options{BaseURL: "http://unused", APIToken: "tok"}, nil, nil)
		if _, err := c.Run(context.Background(), "no-owner", nil); !errors.Is(err, domain.ErrInvocation) {
			t.Errorf("ErrInvocation が返されていません: %v", err)
		}
	})

	t.Run("failed ステータスはエラーになること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"p1","status":"failed","error":"NSFW"}`))
		}))
		defer srv.Close()

		c := NewClient(Options{BaseURL: srv.URL, APIToken: "tok"}, srv.Client(), nil)
		if _, err := c.Run(context.Background(), "owner/m:v", nil); !errors.Is(err, domain.ErrInvocation) {
			t.Errorf("ErrInvocation が返されていません: %v", err)
		}
	})

	t.Run("非2xxはエラーになること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title":"Unauthenticated","detail":"invalid token","status":401}`))
		}))
		defer srv.Close()

		c := NewClient(Options{BaseURL: srv.URL, APIToken: "tok"}, srv.Client(), nil)
		if _, err := c.Run(context.Background(), "owner/m:v", nil); !errors.Is(err, domain.ErrInvocation) {
			t.Errorf("ErrInvocation が返されていません: %v", err)
		}
	})
}

func TestClient_Run_InlineOutputs(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/predictions":
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["` + srv.URL + `/files/1"]}`))
		case "/files/1":
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/v1", APIToken: "tok", InlineOutputs: true}, srv.Client(), newTestFiles())
	out, err := c.Run(context.Background(), "owner/m:v", nil)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if out.Items[0].Kind != ItemStream {
		t.Fatalf("ストリーム要素に変換されていません: %+v", out.Items[0])
	}
	urls, err := Normalize(context.Background(), out)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"data:image/png;base64,iVBORw0KGgo="}) {
		t.Errorf("実際の値 %q", urls)
	}
}
