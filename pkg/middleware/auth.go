package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgw/pkg/auth"
)

// contextKeyPrincipal はGinコンテキストに認証済みプリンシパルを格納するキー。
const contextKeyPrincipal = "principal"

// BearerAuth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストにプリンシパルを設定する。
// 失敗した場合は401とWWW-Authenticate: Bearerチャレンジヘッダーを返し、
// 後続のハンドラは実行されない（下流サービスへの呼び出しは発生しない）。
func BearerAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(contextKeyPrincipal, principal)
		c.Next()
	}
}

// GetPrincipal はGinコンテキストから認証済みプリンシパルを取得する。
// BearerAuthミドルウェアが事前に適用されている必要がある。未認証ならnilを返す。
func GetPrincipal(c *gin.Context) *auth.Principal {
	v, _ := c.Get(contextKeyPrincipal)
	if p, ok := v.(*auth.Principal); ok {
		return p
	}
	return nil
}
