package llm

import "context"

// Options は補完リクエストの生成パラメータ。
type Options struct {
	// Temperature は出力のランダム性。0に近いほど決定的になる。
	Temperature float64
	// MaxTokens は生成する最大トークン数。
	MaxTokens int
}

// Completer は下流の言語モデル補完サービスを表す能力インターフェース。
// テストではネットワークに依存しないスタブに差し替える。
type Completer interface {
	// Complete はシステムプロンプトとユーザーメッセージから補完テキストを生成する。
	// 呼び出しはctxのキャンセルに従って中断されなければならない。
	// 失敗時のエラーは分類のため*llm.Errorであることが望ましい。
	Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error)
}

// ErrorKind は下流補完サービスの失敗分類を表す。
type ErrorKind string

const (
	// KindAuth は下流サービスに対する認証の失敗を表す。APIキーの設定誤り等。
	KindAuth ErrorKind = "auth"
	// KindRateLimited は下流サービスのレート制限超過を表す。
	KindRateLimited ErrorKind = "rate_limited"
	// KindUpstream は下流サービスが返したその他の構造化エラーを表す。
	KindUpstream ErrorKind = "upstream"
	// KindTransport はネットワーク障害等の分類不能な通信エラーを表す。
	KindTransport ErrorKind = "transport"
)

// Error は下流補完サービスの失敗を表すエラー。
type Error struct {
	// Kind は失敗の分類。
	Kind ErrorKind
	// Detail は失敗の詳細。ログ用であり、そのまま利用者に返してはならない。
	Detail string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Detail
}
