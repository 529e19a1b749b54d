// Package llm は下流の言語モデル補完サービスとの通信を提供する。
//
// Completerインターフェースが補完能力の境界であり、本番実装として
// OpenAI互換APIを呼び出すClientを含む。下流の失敗は認証・レート制限・
// 上流エラー・通信エラーの4分類に正規化され、HTTP層でのステータス
// マッピングに使用される。
package llm
