package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBodyBytes はエラーレスポンスボディをDetailに取り込む際の上限。
const maxErrorBodyBytes = 1024

// Client はOpenAI互換のchat completions APIを呼び出すHTTPクライアント。
// Completerインターフェースを実装する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL（例: "https://api.openai.com/v1"）。
	baseURL string
	// apiKey は下流サービスの認証用APIキー。
	apiKey string
	// model は使用するモデル名（例: "gpt-3.5-turbo"）。
	model string
}

// NewClient は新しい補完APIクライアントを生成する。
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// chatMessage はchat completions APIのメッセージ。
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest はchat completions APIのリクエストボディ。
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatCompletionResponse はchat completions APIのレスポンスボディ。
type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete はchat completions APIを1回呼び出し、生成されたテキストを返す。
// リトライは行わない。失敗は*llm.Errorに分類して返す:
// HTTP 401/403はKindAuth、429はKindRateLimited、その他の非2xxはKindUpstream、
// 通信レベルの失敗はKindTransportとなる。
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: KindTransport, Detail: fmt.Sprintf("リクエストボディのシリアライズに失敗: %v", err)}
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Kind: KindTransport, Detail: fmt.Sprintf("HTTPリクエストの作成に失敗: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Detail: fmt.Sprintf("HTTPリクエストの送信に失敗: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus(resp.StatusCode, resp.Body)
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Kind: KindUpstream, Detail: fmt.Sprintf("レスポンスボディのデシリアライズに失敗: %v", err)}
	}
	if len(result.Choices) == 0 {
		return "", &Error{Kind: KindUpstream, Detail: "レスポンスにchoicesが含まれていない"}
	}

	return result.Choices[0].Message.Content, nil
}

// classifyStatus は非2xxレスポンスを失敗分類に変換する。
func classifyStatus(status int, body io.Reader) *Error {
	detail, _ := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindAuth, Detail: fmt.Sprintf("下流サービスの認証に失敗: status=%d", status)}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Detail: fmt.Sprintf("下流サービスのレート制限を超過: status=%d", status)}
	default:
		return &Error{Kind: KindUpstream, Detail: fmt.Sprintf("下流サービスがエラーを返却: status=%d, body=%s", status, string(detail))}
	}
}
