// 認証付きチャットゲートウェイのエントリポイント。
// 外部IDプロバイダが発行したBearerトークンを検証し、認証済みリクエストのみを
// 下流の補完サービスに転送する。外部からアクセス可能な唯一の境界となる。
package main

import (
	"log"

	"github.com/nao1215/authgw/internal/chatgate"
	"github.com/nao1215/authgw/internal/config"
	"github.com/nao1215/authgw/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	completer := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	server := chatgate.NewServer(cfg, completer)

	log.Printf("チャットゲートウェイを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("チャットゲートウェイの起動に失敗: %v", err)
	}
}
