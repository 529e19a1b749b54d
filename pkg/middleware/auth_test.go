package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/authgw/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWT署名シークレット。
const testSecret = "test-secret-key-for-unit-tests"

// issueTestToken は検証に成功するテスト用トークンを発行する。
func issueTestToken(t *testing.T, secret, sub, email string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": sub,
		"aud": "authenticated",
		"exp": jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("テスト用トークンの署名に失敗: %v", err)
	}
	return signed
}

// newAuthRouter はBearerAuthを適用したテスト用ルーターを生成する。
func newAuthRouter(handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(BearerAuth(auth.NewVerifier(testSecret)))
	router.GET("/test", handler)
	return router
}

// okHandler は200を返すだけのハンドラ。
func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TestBearerAuth はBearerAuthミドルウェアを検証する。
func TestBearerAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでリクエストが成功しプリンシパルが設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr := issueTestToken(t, testSecret, "user-ok", "ok@example.com")

		var captured *auth.Principal
		router := newAuthRouter(func(c *gin.Context) {
			captured = GetPrincipal(c)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if captured == nil {
			t.Fatal("プリンシパルがコンテキストに設定されていない")
		}
		if captured.Subject != "user-ok" {
			t.Errorf("Subject = %q, want %q", captured.Subject, "user-ok")
		}
		if captured.Email != "ok@example.com" {
			t.Errorf("Email = %q, want %q", captured.Email, "ok@example.com")
		}
	})

	t.Run("Authorizationヘッダーが無い場合401とチャレンジヘッダーが返ること", func(t *testing.T) {
		t.Parallel()

		handlerCalled := false
		router := newAuthRouter(func(c *gin.Context) {
			handlerCalled = true
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
		}
		if handlerCalled {
			t.Error("認証失敗時にハンドラが呼ばれるべきではない")
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "Authorizationヘッダーが必要です" {
			t.Errorf("error = %q, want %q", body["error"], "Authorizationヘッダーが必要です")
		}
	})

	t.Run("形式不正なヘッダーで401とチャレンジヘッダーが返ること", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer abc def")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
		}
	})

	t.Run("Basicスキームで401が返ること", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
		}
	})

	t.Run("異なるシークレットで署名されたトークンで401が返ること", func(t *testing.T) {
		t.Parallel()

		tokenStr := issueTestToken(t, "different-secret", "user-diff", "")
		router := newAuthRouter(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
		}
	})

	t.Run("期限切れトークンで401と期限切れの文言が返ること", func(t *testing.T) {
		t.Parallel()

		claims := jwt.MapClaims{
			"sub": "user-expired",
			"aud": "authenticated",
			"exp": jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		router := newAuthRouter(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "トークンの有効期限が切れています" {
			t.Errorf("error = %q, want %q", body["error"], "トークンの有効期限が切れています")
		}
	})
}

// TestGetPrincipal はGetPrincipal関数を検証する。
func TestGetPrincipal(t *testing.T) {
	t.Parallel()

	t.Run("コンテキストにプリンシパルが設定されている場合に取得できること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(contextKeyPrincipal, &auth.Principal{Subject: "user-get"})

		got := GetPrincipal(c)
		if got == nil {
			t.Fatal("GetPrincipal()がnilを返した")
		}
		if got.Subject != "user-get" {
			t.Errorf("Subject = %q, want %q", got.Subject, "user-get")
		}
	})

	t.Run("コンテキストにプリンシパルが無い場合nilが返ること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		if got := GetPrincipal(c); got != nil {
			t.Errorf("GetPrincipal() = %+v, want nil", got)
		}
	})

	t.Run("プリンシパル以外の型が設定されている場合nilが返ること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(contextKeyPrincipal, "not-a-principal")

		if got := GetPrincipal(c); got != nil {
			t.Errorf("GetPrincipal() = %+v, want nil", got)
		}
	})
}
