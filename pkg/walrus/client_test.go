package walrus

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-nfter-kit/pkg/domain"

	"github.com/shouni/go-http-kit/httpkit"
)

const aggregator = "https://aggregator.example"

func newTestHTTP() *httpkit.Client {
	return httpkit.New(5*time.Second,
		httpkit.WithSkipNetworkValidation(true),
		httpkit.WithInitialInterval(time.Millisecond),
	)
}

func newPublisher(t *testing.T, status int, body string, hits *atomic.Int32, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Upload_NewlyCreated(t *testing.T) {
	var gotBody []byte
	srv := newPublisher(t, http.StatusOK,
		`{"newlyCreated":{"blobObject":{"id":"0xobj","blobId":"abc123","storage":{"endEpoch":42}}}}`,
		nil,
		func(r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("期待値 PUT, 実際の値 %s", r.Method)
			}
			if r.URL.Path != "/v1/blobs" || r.URL.Query().Get("epochs") != "1" {
				t.Errorf("想定外の URL: %s", r.URL.String())
			}
			if r.URL.Query().Has("send_object_to") {
				t.Errorf("send_object_to は付与されない想定です: %s", r.URL.String())
			}
			gotBody, _ = io.ReadAll(r.Body)
		})

	c := NewClient(newTestHTTP())
	res, err := c.Upload(context.Background(), []byte("png-bytes"), Config{PublisherURL: srv.URL, AggregatorURL: aggregator, Epochs: 1})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if string(gotBody) != "png-bytes" {
		t.Errorf("生バイト列がそのまま送られていません: %q", gotBody)
	}

	want := domain.UploadResult{
		BlobID:     "abc123",
		URL:        aggregator + "/v1/blobs/abc123",
		SuiRef:     "0xobj",
		SuiRefType: domain.SuiRefTypeNewlyCreated,
		EndEpoch:   42,
	}
	if res != want {
		t.Errorf("期待値 %+v, 実際の値 %+v", want, res)
	}
}

func TestClient_Upload_AlreadyCertified(t *testing.T) {
	srv := newPublisher(t, http.StatusOK,
		`{"alreadyCertified":{"blobId":"def456","endEpoch":7,"event":{"txDigest":"DigestX","eventSeq":"0"}}}`,
		nil, nil)

	c := NewClient(newTestHTTP())
	res, err := c.Upload(context.Background(), []byte("data"), Config{PublisherURL: srv.URL, AggregatorURL: aggregator + "/", Epochs: 3})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if res.SuiRefType != domain.SuiRefTypeAlreadyCertified || res.SuiRef != "DigestX" {
		t.Errorf("Sui 参照が不正です: %+v", res)
	}
	if res.URL != aggregator+"/v1/blobs/def456" {
		t.Errorf("期待値 %s, 実際の値 %s", aggregator+"/v1/blobs/def456", res.URL)
	}
	if res.EndEpoch != 7 {
		t.Errorf("期待値 7, 実際の値 %d", res.EndEpoch)
	}
}

func TestClient_Upload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"どちらの形でもない", http.StatusOK, `{"somethingElse":{}}`},
		{"両方の形を持つ", http.StatusOK, `{"alreadyCertified":{"blobId":"a"},"newlyCreated":{"blobObject":{"blobId":"b"}}}`},
		{"JSON ではない", http.StatusOK, `not json`},
		{"blobId が空", http.StatusOK, `{"newlyCreated":{"blobObject":{"id":"0x1"}}}`},
		{"500 応答", http.StatusInternalServerError, `boom`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newPublisher(t, tt.status, tt.body, nil, nil)
			c := NewClient(newTestHTTP())
			_, err := c.Upload(context.Background(), []byte("x"), Config{PublisherURL: srv.URL, AggregatorURL: aggregator, Epochs: 1})
			if !errors.Is(err, domain.ErrUpload) {
				t.Errorf("期待値 ErrUpload, 実際の値 %v", err)
			}
		})
	}
}

func TestClient_Upload_SendTo(t *testing.T) {
	srv := newPublisher(t, http.StatusOK,
		`{"newlyCreated":{"blobObject":{"id":"0xobj","blobId":"abc","storage":{"endEpoch":1}}}}`,
		nil,
		func(r *http.Request) {
			if got := r.URL.Query().Get("send_object_to"); got != "0xabc" {
				t.Errorf("期待値 0xabc, 実際の値 %q", got)
			}
		})
	c := NewClient(newTestHTTP())
	if _, err := c.Upload(context.Background(), []byte("x"), Config{PublisherURL: srv.URL, AggregatorURL: aggregator, Epochs: 1, SendTo: "0xabc"}); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
}

func TestClient_Upload_CachesSameContent(t *testing.T) {
	var hits atomic.Int32
	srv := newPublisher(t, http.StatusOK,
		`{"newlyCreated":{"blobObject":{"id":"0xobj","blobId":"abc","storage":{"endEpoch":1}}}}`,
		&hits, nil)
	c := NewClient(newTestHTTP())
	cfg := Config{PublisherURL: srv.URL, AggregatorURL: aggregator, Epochs: 1}

	for i := 0; i < 3; i++ {
		if _, err := c.Upload(context.Background(), []byte("same"), cfg); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("期待値 1回, 実際の値 %d回", hits.Load())
	}

	if _, err := c.Upload(context.Background(), []byte("different"), cfg); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("期待値 2回, 実際の値 %d回", hits.Load())
	}
}

func TestClient_Upload_EmptyData(t *testing.T) {
	c := NewClient(nil)
	_, err := c.Upload(context.Background(), nil, Config{PublisherURL: "http://unused", Epochs: 1})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("期待値 ErrValidation, 実際の値 %v", err)
	}
}

func TestClient_Upload_JoinerSurvivesCanceledLeader(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"newlyCreated":{"blobObject":{"id":"0xobj","blobId":"slow","storage":{"endEpoch":1}}}}`))
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(newTestHTTP())
	cfg := Config{PublisherURL: srv.URL, AggregatorURL: aggregator, Epochs: 1}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Upload(leaderCtx, []byte("same"), cfg)
		leaderErr <- err
	}()
	for hits.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	joined := make(chan error, 1)
	var res domain.UploadResult
	go func() {
		var err error
		res, err = c.Upload(context.Background(), []byte("same"), cfg)
		joined <- err
	}()

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("期待値 context.Canceled, 実際の値 %v", err)
	}

	release <- struct{}{}
	if err := <-joined; err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if res.BlobID != "slow" {
		t.Errorf("期待値 slow, 実際の値 %s", res.BlobID)
	}
	if hits.Load() != 1 {
		t.Errorf("期待値 1回, 実際の値 %d回", hits.Load())
	}
}
