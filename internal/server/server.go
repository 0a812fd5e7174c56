package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/httpkit"
)

const (
	sessionHeader   = "X-Session-ID"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	shutdownTimeout = 10 * time.Second
)

// Server はブラウザ向けの HTTP API を提供するのだ。
type Server struct {
	cfg      *config.Config
	r        *gin.Engine
	manager  *workflow.Manager
	sessions *workflow.SessionStore
	urls     httpkit.URLValidator
}

// NewServer はルーティングを登録した Server を作成するのだ。
// urls が nil なら、画像 URL の SSRF 検査は取得時の httpkit クライアントに任せるのだ。
func NewServer(cfg *config.Config, manager *workflow.Manager, urls httpkit.URLValidator) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())
	r.MaxMultipartMemory = manager.Config().MaxUploadSize

	s := &Server{
		cfg:      cfg,
		r:        r,
		manager:  manager,
		sessions: workflow.NewSessionStore(),
		urls:     urls,
	}
	s.routes()
	return s
}

// Handler はテストなどで直接使う http.Handler を返すのだ。
func (s *Server) Handler() http.Handler {
	return s.r
}

// Run は ctx がキャンセルされるまで待ち受け、終了時は処理中のリクエストを待ってから止まるのだ。
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Options.ListenAddr
	if addr == "" {
		addr = config.DefaultListenAddr
	}
	srv := &http.Server{Addr: addr, Handler: s.r}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動したのだ", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("HTTP サーバーを停止するのだ...")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.r.Group("/api")
	{
		api.GET("/roles", s.handleRoles)

		api.GET("/session", s.handleSession)
		api.POST("/session/connect", s.handleConnect)
		api.POST("/session/disconnect", s.handleDisconnect)

		api.POST("/generate", s.handleGenerate)
		api.POST("/blobs", s.handleUpload)
		api.POST("/mint", s.handleMint)
	}
}
