package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/config"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/sui"

	"github.com/shouni/go-http-kit/httpkit"
)

const (
	testAggregator = "https://aggregator.example"
	testSender     = "0x00000000000000000000000000000000000000000000000000000000000000a1"
)

// fakeBackend は Replicate / Walrus / Sui RPC / ウォレットブリッジを1台で模擬します。
type fakeBackend struct {
	t          *testing.T
	srv        *httptest.Server
	modelCalls atomic.Int32
	rpcCalls   atomic.Int32
	puts       atomic.Int32
	putDelay   time.Duration
	uploaded   []byte
	faceImage  string
}

// testFetchClient はループバックの画像 URL も取得できる httpkit.Client です。
func testFetchClient() *httpkit.Client {
	return httpkit.New(5*time.Second,
		httpkit.WithSkipNetworkValidation(true),
		httpkit.WithInitialInterval(time.Millisecond),
	)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fb := &fakeBackend{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/predictions", fb.predictions)
	mux.HandleFunc("GET /img/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("image-" + r.PathValue("name")))
	})
	mux.HandleFunc("PUT /v1/blobs", func(w http.ResponseWriter, r *http.Request) {
		fb.puts.Add(1)
		if fb.putDelay > 0 {
			time.Sleep(fb.putDelay)
		}
		fb.uploaded, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"newlyCreated":{"blobObject":{"id":"0xblobobj","blobId":"abc123","storage":{"endEpoch":12}}}}`))
	})
	mux.HandleFunc("POST /bridge", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"digest":"MintDigest"}`))
	})
	mux.HandleFunc("POST /rpc", fb.rpc)
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) predictions(w http.ResponseWriter, r *http.Request) {
	fb.modelCalls.Add(1)
	var body struct {
		Input map[string]any `json:"input"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	fb.faceImage, _ = body.Input["main_face_image"].(string)

	out := []string{fb.srv.URL + "/img/1.png", fb.srv.URL + "/img/2.png", fb.srv.URL + "/img/3.png"}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": "p1", "status": "succeeded", "output": out})
}

func (fb *fakeBackend) rpc(w http.ResponseWriter, r *http.Request) {
	if fb.rpcCalls.Add(1) < 3 {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Could not find the referenced transaction"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"digest":"MintDigest",
		"effects":{"status":{"status":"success"},"created":[]},
		"objectChanges":[{"type":"created","objectType":"0xpkg::nfter::NFT","objectId":"0xnft"}]}}`))
}

func (fb *fakeBackend) config() config.Config {
	cfg := config.NewConfig("tok")
	cfg.ReplicateBaseURL = fb.srv.URL + "/v1"
	cfg.Model = "bytedance/pulid:v1"
	cfg.RateInterval = 0
	cfg.WalrusPublisherURL = fb.srv.URL
	cfg.WalrusAggregatorURL = testAggregator
	cfg.SuiRPCURL = fb.srv.URL + "/rpc"
	cfg.WalletBridgeURL = fb.srv.URL + "/bridge"
	cfg.PackageID = "0xpkg"
	cfg.CollectionID = "0xcol"
	return cfg
}

// recordingSigner は署名対象のトランザクションを記録します。
type recordingSigner struct {
	inner sui.Signer
	tx    *sui.Transaction
}

func (s *recordingSigner) SignAndExecute(ctx context.Context, tx *sui.Transaction) (string, error) {
	s.tx = tx
	return s.inner.SignAndExecute(ctx, tx)
}

func TestManager_EndToEnd(t *testing.T) {
	fb := newFakeBackend(t)
	cfg := fb.config()
	signer := &recordingSigner{inner: sui.NewWalletBridge(cfg.WalletBridgeURL, fb.srv.Client())}
	var slept time.Duration

	m, err := New(ManagerArgs{
		Config:      cfg,
		HTTPClient:  fb.srv.Client(),
		FetchClient: testFetchClient(),
		Rand:        rand.New(rand.NewPCG(1, 2)),
		Signer:      signer,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept += d
			return nil
		},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	ctx := context.Background()
	session := NewSession("e2e")
	if err := session.Connect(testSender); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	// 1. 生成
	genRunner, _ := m.BuildGenerateRunner()
	jpeg := domain.ImageInput{Filename: "me.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte{0xff}, 2*1024*1024)}
	gen, err := Run(ctx, session, StageGenerate, func(ctx context.Context) (domain.GenerationResult, error) {
		return genRunner.Run(ctx, jpeg, "Hokage")
	})
	if err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}
	if len(gen.ImageURLs) != 3 || len(gen.Scores) != 3 {
		t.Fatalf("期待値 3件, 実際の値 %+v", gen)
	}
	for _, s := range gen.Scores {
		if s < 90 || s > 100 {
			t.Errorf("スコア %d が [90,100] の範囲外です", s)
		}
	}
	if !strings.HasPrefix(fb.faceImage, "data:image/jpeg;base64,") {
		t.Errorf("元画像が data URI で送られていません: %.40s", fb.faceImage)
	}

	// 2. 2番目の画像を保存
	upRunner, _ := m.BuildUploadRunner()
	up, err := Run(ctx, session, StageUpload, func(ctx context.Context) (domain.UploadResult, error) {
		return upRunner.Run(ctx, gen.ImageURLs[1])
	})
	if err != nil {
		t.Fatalf("アップロードに失敗しました: %v", err)
	}
	if string(fb.uploaded) != "image-2.png" {
		t.Errorf("期待値 image-2.png, 実際の値 %q", fb.uploaded)
	}
	if up.URL != testAggregator+"/v1/blobs/abc123" {
		t.Errorf("期待値 %s, 実際の値 %s", testAggregator+"/v1/blobs/abc123", up.URL)
	}

	// 3. mint と確認
	mintRunner, _ := m.BuildMintRunner()
	req := domain.NewMintRequest(gen.Role, gen.Prompt, cfg.ModelVersionLabel, up)
	out, err := Run(ctx, session, StageMint, func(ctx context.Context) (domain.MintOutcome, error) {
		return mintRunner.Run(ctx, req, session.Account())
	})
	if err != nil {
		t.Fatalf("mint に失敗しました: %v", err)
	}
	if out.Status != domain.MintConfirmed || out.ObjectID != "0xnft" || out.Attempts != 3 {
		t.Errorf("実際の値 %+v", out)
	}
	if slept < 6*time.Second {
		t.Errorf("期待値 6s 以上, 実際の値 %s", slept)
	}

	call, ok := signer.tx.MintCall()
	if !ok {
		t.Fatal("MoveCall がありません")
	}
	checks := []struct {
		name string
		arg  int
		typ  string
		want []any
	}{
		{"royaltyRecipients", 3, sui.TypeAddress, []any{testSender}},
		{"royaltyPercentages", 4, sui.TypeU64, []any{uint64(100)}},
		{"attributeNames", 12, sui.TypeString, []any{"Role", "Model Version"}},
		{"attributeValues", 13, sui.TypeString, []any{"Hokage", config.DefaultModelVersionLabel}},
	}
	for _, c := range checks {
		typ, values, ok := signer.tx.VectorOf(call.Arguments[c.arg])
		if !ok || typ != c.typ || !reflect.DeepEqual(values, c.want) {
			t.Errorf("%s: 期待値 %s %v, 実際の値 %s %v", c.name, c.typ, c.want, typ, values)
		}
	}

	if last, ok := session.LastMint(); !ok || last.ObjectID != "0xnft" {
		t.Errorf("セッションに mint 結果が記録されていません: %+v", last)
	}
}

func TestManager_RejectsLargeFileBeforeNetwork(t *testing.T) {
	fb := newFakeBackend(t)
	m, err := New(ManagerArgs{Config: fb.config(), HTTPClient: fb.srv.Client(), FetchClient: testFetchClient()})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	genRunner, _ := m.BuildGenerateRunner()

	big := domain.ImageInput{Filename: "big.png", Data: make([]byte, 20*1024*1024)}
	_, err = genRunner.Run(context.Background(), big, "Hokage")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("期待値 ErrValidation, 実際の値 %v", err)
	}
	if fb.modelCalls.Load() != 0 {
		t.Errorf("モデルは呼ばれない想定です: %d", fb.modelCalls.Load())
	}
}

func TestManager_BuildRequiresSettings(t *testing.T) {
	if _, err := New(ManagerArgs{Config: config.DefaultConfig()}); err == nil {
		t.Error("httpClient なしはエラーになる想定です")
	}

	m, err := New(ManagerArgs{Config: config.DefaultConfig(), HTTPClient: http.DefaultClient})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if _, err := m.BuildMintRunner(); err == nil {
		t.Error("パッケージID未設定はエラーになる想定です")
	}
	if len(m.Roles()) != len(domain.DefaultRoles) {
		t.Errorf("既定のロールカタログが使われる想定です: %d", len(m.Roles()))
	}
}

func TestManager_SupersededUploadSharesSingleStore(t *testing.T) {
	fb := newFakeBackend(t)
	fb.putDelay = 300 * time.Millisecond
	m, err := New(ManagerArgs{Config: fb.config(), HTTPClient: fb.srv.Client(), FetchClient: testFetchClient()})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	upRunner, _ := m.BuildUploadRunner()
	session := NewSession("double-click")
	ref := domain.DataURI("image/png", []byte("same-image"))
	upload := func(ctx context.Context) (domain.UploadResult, error) {
		return upRunner.Run(ctx, ref)
	}

	first := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), session, StageUpload, upload)
		first <- err
	}()
	time.Sleep(50 * time.Millisecond)

	up, err := Run(context.Background(), session, StageUpload, upload)
	if err != nil {
		t.Fatalf("後発のアップロードが失敗しました: %v", err)
	}
	if up.BlobID != "abc123" {
		t.Errorf("期待値 abc123, 実際の値 %s", up.BlobID)
	}
	if err := <-first; !errors.Is(err, domain.ErrSuperseded) {
		t.Errorf("期待値 ErrSuperseded, 実際の値 %v", err)
	}
	if got := fb.puts.Load(); got != 1 {
		t.Errorf("期待値 PUT 1回, 実際の値 %d回", got)
	}
	if last, ok := session.LastUpload(); !ok || last.BlobID != "abc123" {
		t.Errorf("セッションに後発の結果が記録されていません: %+v", last)
	}
}
