// Package auth はBearerトークンの検証と認証済みプリンシパルの抽出を提供する。
//
// 外部IDプロバイダが発行したHS256署名のJWTを共有シークレットで検証する。
// 検証は現在時刻とシークレットが与えられれば純粋な処理であり、
// ネットワークやディスクへのアクセスは行わない。
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Reason は認証失敗の分類を表す。
type Reason string

const (
	// ReasonMissingHeader はAuthorizationヘッダーが存在しないことを表す。
	ReasonMissingHeader Reason = "missing_header"
	// ReasonMalformedHeader はAuthorizationヘッダーの形式が不正であることを表す。
	ReasonMalformedHeader Reason = "malformed_header"
	// ReasonUnsupportedScheme はBearer以外の認証スキームが指定されたことを表す。
	ReasonUnsupportedScheme Reason = "unsupported_scheme"
	// ReasonExpiredToken はトークンの有効期限が切れていることを表す。
	ReasonExpiredToken Reason = "expired_token"
	// ReasonInvalidToken は署名またはクレームの検証に失敗したことを表す。
	ReasonInvalidToken Reason = "invalid_token"
)

// Error は認証失敗を表すエラー。
// Messageは利用者向けの文言であり、シークレット等の機密情報を含めてはならない。
type Error struct {
	// Reason は失敗の分類。
	Reason Reason
	// Message は利用者向けの説明文。
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return e.Message
}

// expectedAudience は検証対象トークンに要求するaudクレームの値。
// IDプロバイダは認証済みユーザーのトークンにこの値を設定する。
const expectedAudience = "authenticated"

// Principal はトークン検証によって得られた認証済みの主体を表す。
// リクエストごとに生成され、リクエスト終了とともに破棄される。永続化しない。
type Principal struct {
	// Subject はユーザーの一意識別子（subクレーム）。常に非空。
	Subject string
	// Email はユーザーのメールアドレス（emailクレーム）。存在しない場合は空。
	Email string
	// RawClaims はトークンペイロード全体。subとemail以外のクレームを
	// 将来の認可判断で参照できるよう保持する。変更してはならない。
	RawClaims map[string]any
}

// Verifier はBearerトークンを検証するTokenGate。
// シークレットと時刻関数のみに依存するため、固定時刻を注入すれば
// 決定的にテストできる。並行利用に対して安全。
type Verifier struct {
	// secret はHS256署名検証用の共有シークレット。
	secret []byte
	// now は現在時刻を返す関数。テストで固定時刻を注入するために持つ。
	now func() time.Time
}

// NewVerifier は新しいVerifierを生成する。現在時刻にはtime.Nowを使用する。
func NewVerifier(secret string) *Verifier {
	return NewVerifierWithClock(secret, time.Now)
}

// NewVerifierWithClock は時刻関数を指定してVerifierを生成する。
func NewVerifierWithClock(secret string, now func() time.Time) *Verifier {
	return &Verifier{secret: []byte(secret), now: now}
}

// Verify はAuthorizationヘッダーの値を検証し、認証済みプリンシパルを返す。
// 失敗時のエラーは常に*Errorであり、Reasonで失敗の分類を判別できる。
//
// 検証手順:
//  1. ヘッダーが空ならReasonMissingHeader
//  2. 空白区切りでちょうど2要素に分割できなければReasonMalformedHeader
//  3. スキームが大文字小文字を無視して"bearer"でなければReasonUnsupportedScheme
//  4. HS256署名・有効期限・audクレーム("authenticated")を検証し、
//     期限切れはReasonExpiredToken、それ以外の失敗はReasonInvalidToken
//  5. subクレームが空ならReasonInvalidToken（主体のないトークンは無効とみなす）
func (v *Verifier) Verify(header string) (*Principal, error) {
	if header == "" {
		return nil, &Error{Reason: ReasonMissingHeader, Message: "Authorizationヘッダーが必要です"}
	}

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return nil, &Error{Reason: ReasonMalformedHeader, Message: "Authorizationヘッダーの形式が不正です"}
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return nil, &Error{Reason: ReasonUnsupportedScheme, Message: "Bearer以外の認証スキームはサポートしていません"}
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims,
		func(_ *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(expectedAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &Error{Reason: ReasonExpiredToken, Message: "トークンの有効期限が切れています"}
		}
		return nil, &Error{Reason: ReasonInvalidToken, Message: "トークンが無効です"}
	}
	if !token.Valid {
		return nil, &Error{Reason: ReasonInvalidToken, Message: "トークンが無効です"}
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, &Error{Reason: ReasonInvalidToken, Message: "トークンが無効です"}
	}
	email, _ := claims["email"].(string)

	return &Principal{
		Subject:   subject,
		Email:     email,
		RawClaims: claims,
	}, nil
}
