package server

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-nfter-kit/internal/pipeline"
	"github.com/shouni/go-nfter-kit/pkg/domain"
	"github.com/shouni/go-nfter-kit/pkg/walrus"
	"github.com/shouni/go-nfter-kit/pkg/workflow"
)

const (
	imageField = "image"
	roleField  = "selected_role"
)

type connectRequest struct {
	Address string `json:"address"`
}

type uploadRequest struct {
	ImageURL string `json:"imageUrl"`
}

type mintRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Role        string `json:"role"`
	Prompt      string `json:"prompt"`
	BlobID      string `json:"blobId"`
	Wait        *bool  `json:"wait"`
}

type sessionResponse struct {
	SessionID  string                   `json:"sessionId"`
	Address    string                   `json:"address,omitempty"`
	Generation *domain.GenerationResult `json:"generation,omitempty"`
	Upload     *domain.UploadResult     `json:"upload,omitempty"`
	Mint       *domain.MintOutcome      `json:"mint,omitempty"`
}

// session は X-Session-ID のセッションを取得し、応答ヘッダーにも ID を返すのだ。
func (s *Server) session(c *gin.Context) *workflow.Session {
	sess := s.sessions.Get(c.GetHeader(sessionHeader))
	c.Header(sessionHeader, sess.ID)
	return sess
}

func (s *Server) handleRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": s.manager.Roles()})
}

func (s *Server) handleSession(c *gin.Context) {
	sess := s.session(c)
	res := sessionResponse{SessionID: sess.ID}
	if acc := sess.Account(); acc != nil {
		res.Address = acc.Address
	}
	if g, ok := sess.LastGeneration(); ok {
		res.Generation = &g
	}
	if u, ok := sess.LastUpload(); ok {
		res.Upload = &u
	}
	if m, ok := sess.LastMint(); ok {
		res.Mint = &m
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleConnect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validationf("invalid request body: %v", err))
		return
	}
	sess := s.session(c)
	if err := sess.Connect(req.Address); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionID: sess.ID, Address: sess.Account().Address})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	sess := s.session(c)
	sess.Disconnect()
	c.JSON(http.StatusOK, sessionResponse{SessionID: sess.ID})
}

// handleGenerate は multipart の image と selected_role を受け取り、アバター画像を生成するのだ。
// selected_role が空ならロールは抽選なのだ。
func (s *Server) handleGenerate(c *gin.Context) {
	sess := s.session(c)

	fh, err := c.FormFile(imageField)
	if err != nil {
		writeError(c, domain.Validationf("No image provided"))
		return
	}
	image, err := s.readUpload(fh)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := image.Validate(s.manager.Config().MaxUploadSize); err != nil {
		writeError(c, err)
		return
	}
	role := strings.TrimSpace(c.PostForm(roleField))

	genRunner, err := s.manager.BuildGenerateRunner()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := workflow.Run(c.Request.Context(), sess, workflow.StageGenerate, func(ctx context.Context) (domain.GenerationResult, error) {
		return genRunner.Run(ctx, image, role)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleUpload は選択された生成画像を Walrus に保存するのだ。
// JSON の imageUrl か multipart の image のどちらかを受け付けるのだ。
func (s *Server) handleUpload(c *gin.Context) {
	sess := s.session(c)

	upRunner, err := s.manager.BuildUploadRunner()
	if err != nil {
		writeError(c, err)
		return
	}

	var fn func(ctx context.Context) (domain.UploadResult, error)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile(imageField)
		if err != nil {
			writeError(c, domain.Validationf("No image provided"))
			return
		}
		image, err := s.readUpload(fh)
		if err != nil {
			writeError(c, err)
			return
		}
		fn = func(ctx context.Context) (domain.UploadResult, error) {
			return upRunner.RunBytes(ctx, image.Data)
		}
	} else {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Validationf("invalid request body: %v", err))
			return
		}
		ref := strings.TrimSpace(req.ImageURL)
		if err := s.checkImageRef(sess, ref); err != nil {
			writeError(c, err)
			return
		}
		fn = func(ctx context.Context) (domain.UploadResult, error) {
			return upRunner.Run(ctx, ref)
		}
	}

	res, err := workflow.Run(c.Request.Context(), sess, workflow.StageUpload, fn)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// checkImageRef は JSON で渡された画像参照を検査するのだ。
// data URI か、このセッションの直前の生成結果に含まれる http(s) URL だけを受け付けるのだ。
// ローカルパスや gs:// はサーバー側のファイルを読んでしまうので拒否するのだ。
func (s *Server) checkImageRef(sess *workflow.Session, ref string) error {
	switch {
	case ref == "":
		return domain.Validationf("imageUrl is required")
	case strings.HasPrefix(ref, "data:"):
		return nil
	case strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://"):
	default:
		return domain.Validationf("imageUrl must be an http(s) or data: URL")
	}

	gen, ok := sess.LastGeneration()
	if !ok || !slices.Contains(gen.ImageURLs, ref) {
		return domain.Validationf("imageUrl is not one of the generated images")
	}
	if s.urls != nil {
		if safe, err := s.urls.IsSafeURL(ref); !safe {
			return domain.Validationf("imageUrl is not allowed: %v", err)
		}
	}
	return nil
}

// handleMint は接続中のアカウントで mint するのだ。blobId が無ければ直前の保存結果を使うのだ。
func (s *Server) handleMint(c *gin.Context) {
	sess := s.session(c)

	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validationf("invalid request body: %v", err))
		return
	}
	account := sess.Account()
	if account == nil {
		writeError(c, domain.ErrNotConnected)
		return
	}

	blob, ok := sess.LastUpload()
	if req.BlobID != "" {
		blob = domain.UploadResult{
			BlobID: req.BlobID,
			URL:    walrus.BlobURL(s.manager.Config().WalrusAggregatorURL, req.BlobID),
		}
	} else if !ok {
		writeError(c, domain.Validationf("no uploaded blob; upload an image first"))
		return
	}

	role, prompt := req.Role, req.Prompt
	if g, ok := sess.LastGeneration(); ok {
		if role == "" {
			role = g.Role
		}
		if prompt == "" {
			prompt = g.Prompt
		}
	}
	mreq := pipeline.BuildMintRequest(s.cfg, role, prompt, blob)
	if req.Name != "" {
		mreq.Name = req.Name
	}
	if req.Description != "" {
		mreq.Description = req.Description
	}

	mintRunner, err := s.manager.BuildMintRunner()
	if err != nil {
		writeError(c, err)
		return
	}
	wait := req.Wait == nil || *req.Wait
	res, err := workflow.Run(c.Request.Context(), sess, workflow.StageMint, func(ctx context.Context) (domain.MintOutcome, error) {
		if wait {
			return mintRunner.Run(ctx, mreq, account)
		}
		return mintRunner.Submit(ctx, mreq, account)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// readUpload はアップロードされたファイルを上限サイズ +1 バイトまで読み込むのだ。
func (s *Server) readUpload(fh *multipart.FileHeader) (domain.ImageInput, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.ImageInput{}, domain.Validationf("failed to open upload: %v", err)
	}
	defer f.Close()

	limit := s.manager.Config().MaxUploadSize
	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ImageInput{}, domain.Validationf("failed to read upload: %v", err)
	}
	return domain.ImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
