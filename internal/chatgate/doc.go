// Package chatgate は認証付きチャットゲートウェイの内部実装を提供する。
//
// 外部IDプロバイダが発行したBearerトークンを検証し、認証済みリクエストの
// メッセージのみを下流の補完サービスに転送する。下流の失敗は固定の
// エラー分類（レート制限は429、それ以外は500）に変換して呼び出し元に返す。
// 会話履歴は保持せず、リクエストをまたぐ可変状態を持たない。
package chatgate
