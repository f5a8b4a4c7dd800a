// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, calendar, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeGoogleUnauthorized = "GOOGLE_UNAUTHORIZED"
	ErrCodeAuthExchangeFailed = "AUTH_EXCHANGE_FAILED"
	ErrCodeProviderError      = "PROVIDER_ERROR"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeRecordNotFound     = "RECORD_NOT_FOUND"
	ErrCodeInvalidDateRange   = "INVALID_DATE_RANGE"
)

// NewGoogleUnauthorizedError はGoogle未認可エラーを生成する。
func NewGoogleUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeGoogleUnauthorized,
		Message:  "Googleカレンダーと連携されていません。",
		Category: "auth",
		Action:   "認可URLからGoogleアカウントの連携を行ってください。",
	}
}

// NewAuthExchangeFailedError は認可コード交換失敗エラーを生成する。
func NewAuthExchangeFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthExchangeFailed,
		Message:  "Googleとの認可コード交換に失敗しました。",
		Category: "auth",
		Action:   "連携をやり直してください。問題が続く場合はクライアント設定を確認してください。",
	}
}

// NewProviderError はプロバイダーエラー（非2xx応答）を生成する。
func NewProviderError(statusCode int) *APIError {
	return &APIError{
		Code:     ErrCodeProviderError,
		Message:  fmt.Sprintf("Googleカレンダーがエラーを返しました（ステータス %d）。", statusCode),
		Category: "calendar",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNetworkError はネットワーク/タイムアウトエラーを生成する。
func NewNetworkError() *APIError {
	return &APIError{
		Code:     ErrCodeNetworkError,
		Message:  "Googleカレンダーへの接続に失敗しました。",
		Category: "calendar",
		Action:   "ネットワーク状態を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationError,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "必須項目を確認して再度お試しください。",
	}
}

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewRecordNotFoundError はレコード未検出エラーを生成する。
func NewRecordNotFoundError(kind, id string) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %s", kind, id),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidDateRangeError は日付範囲指定エラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("日付範囲の指定が不正です: %s", reason),
		Category: "validation",
		Action:   "start_dateとend_dateをYYYY-MM-DD形式で指定してください。",
	}
}
