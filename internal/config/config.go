// Package config は環境変数からプロセス全体の設定を構築する。
//
// 設定は起動時に一度だけ読み込まれ、以降は不変の値として各コンポーネントの
// コンストラクタに渡される。リクエスト処理中に環境変数を参照することはない。
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config はプロセス全体で共有する不変の設定値。
// 必須項目の欠落は起動時エラーであり、リクエスト時エラーにはならない。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// JWTSecret はBearerトークンのHS256署名検証用シークレット。必須。
	JWTSecret string
	// OpenAIAPIKey は下流補完サービスの認証用APIキー。必須。
	OpenAIAPIKey string
	// OpenAIBaseURL は下流補完サービスのベースURL。
	OpenAIBaseURL string
	// OpenAIModel は補完に使用するモデル名。
	OpenAIModel string
	// AllowedOrigins はCORSで許可するオリジンのリスト。
	AllowedOrigins []string
}

// Load は環境変数から設定を構築する。
// JWT_SECRETとOPENAI_API_KEYは必須であり、欠落している場合はエラーを返す。
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("環境変数JWT_SECRETが設定されていない")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("環境変数OPENAI_API_KEYが設定されていない")
	}

	origins := strings.Split(getEnvOr("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000"), ",")
	for i, o := range origins {
		origins[i] = strings.TrimSpace(o)
	}

	return &Config{
		Port:           getEnvOr("PORT", "8080"),
		JWTSecret:      jwtSecret,
		OpenAIAPIKey:   apiKey,
		OpenAIBaseURL:  getEnvOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    getEnvOr("OPENAI_MODEL", "gpt-3.5-turbo"),
		AllowedOrigins: origins,
	}, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
