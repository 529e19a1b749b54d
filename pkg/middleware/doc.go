// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの検証ゲート、リクエスト相関ID、パニックリカバリ、
// CORS設定など、HTTP境界で共通して使用するミドルウェアを含む。
package middleware
