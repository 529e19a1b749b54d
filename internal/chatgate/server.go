package chatgate

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgw/internal/config"
	"github.com/nao1215/authgw/pkg/auth"
	"github.com/nao1215/authgw/pkg/llm"
	"github.com/nao1215/authgw/pkg/middleware"
)

// serviceName はヘルスチェック等で返すサービス名。
const serviceName = "authgw"

// systemPrompt は補完リクエストに常に付与するシステムプロンプト。
const systemPrompt = "You are a helpful assistant."

// completionOptions は補完リクエストの固定生成パラメータ。
var completionOptions = llm.Options{Temperature: 0.7, MaxTokens: 500}

// Server は認証付きチャットゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// verifier はBearerトークンを検証するTokenGate。
	verifier *auth.Verifier
	// completer は下流の補完サービス。
	completer llm.Completer
}

// NewServer は新しいチャットゲートウェイサーバーを生成する。
// completerには本番ではllm.Clientを、テストではスタブを渡す。
func NewServer(cfg *config.Config, completer llm.Completer) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		verifier:  auth.NewVerifier(cfg.JWTSecret),
		completer: completer,
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.GET("/", s.handleRoot())
	s.router.GET("/health", s.handleHealth())

	// チャットエンドポイント（Bearerトークン必須）
	s.router.POST("/chat", middleware.BearerAuth(s.verifier), s.handleChat())
}

// chatRequest はチャットエンドポイントのリクエストボディ。
type chatRequest struct {
	// Message はユーザーのメッセージ。空白のみの場合は不正とみなす。
	Message string `json:"message"`
}

// chatResponse はチャットエンドポイントのレスポンスボディ。
type chatResponse struct {
	// Reply は補完サービスが生成した応答テキスト。
	Reply string `json:"reply"`
}

// handleRoot はAPIの案内を返すハンドラを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "認証付きチャットAPIが稼働中です",
			"endpoints": gin.H{
				"chat": "POST /chat",
			},
		})
	}
}

// handleHealth はヘルスチェックハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	}
}

// handleChat はチャットメッセージを下流の補完サービスに転送するハンドラを返す。
// BearerAuthミドルウェアが事前に適用されているため、ここに到達した時点で
// プリンシパルは確定している。補完呼び出しはリクエストのコンテキストに
// 束縛され、呼び出し元の切断やタイムアウトで中断される。リトライは行わない。
func (s *Server) handleChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの形式が不正です"})
			return
		}

		message := strings.TrimSpace(req.Message)
		if message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "メッセージが空です"})
			return
		}

		reply, err := s.completer.Complete(c.Request.Context(), systemPrompt, message, completionOptions)
		if err != nil {
			s.respondCompletionError(c, err)
			return
		}

		c.JSON(http.StatusOK, chatResponse{Reply: strings.TrimSpace(reply)})
	}
}

// respondCompletionError は下流補完サービスの失敗を外向きのステータスに変換する。
// レート制限は429、それ以外はすべて500となる。詳細はログにのみ出力し、
// 利用者には固定の文言を返す。
func (s *Server) respondCompletionError(c *gin.Context, err error) {
	principal := middleware.GetPrincipal(c)
	subject := ""
	if principal != nil {
		subject = principal.Subject
	}

	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		log.Printf("補完呼び出しで分類不能なエラー: request_id=%s sub=%s error=%v",
			middleware.GetRequestID(c), subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "応答の生成に失敗しました"})
		return
	}

	log.Printf("補完呼び出しに失敗: request_id=%s sub=%s kind=%s detail=%s",
		middleware.GetRequestID(c), subject, llmErr.Kind, llmErr.Detail)

	switch llmErr.Kind {
	case llm.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "下流サービスのレート制限を超過しました。しばらくしてから再試行してください"})
	case llm.KindAuth:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "下流サービスの認証に失敗しました"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "応答の生成に失敗しました"})
	}
}
