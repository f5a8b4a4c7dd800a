package calendar

import (
	"errors"
	"fmt"
)

// 同期サブシステムのエラー分類。
// ハンドラー層はerrors.Is/errors.Asでこれらを判別し、
// model.APIErrorの統一フォーマットに変換する。
var (
	// ErrUnauthorized はアクセス資格情報が存在しない、または
	// プロバイダーに拒否された（401/403）ことを表す。
	ErrUnauthorized = errors.New("googleカレンダーと未連携です")

	// ErrAuthExchangeFailed は認可コード交換がプロバイダーに拒否されたことを表す。
	ErrAuthExchangeFailed = errors.New("認可コードの交換に失敗しました")

	// ErrNetwork はトランスポート障害またはタイムアウトを表す。
	// レスポンスは受信しておらず、ローカルの状態変更も発生していない。
	ErrNetwork = errors.New("プロバイダーへの接続に失敗しました")

	// ErrValidation は呼び出し元が渡した下書きの必須項目不足を表す。
	ErrValidation = errors.New("イベント下書きの検証に失敗しました")

	// ErrTranslation はリモートイベント1件の変換失敗を表す。
	// 同期パス全体は中断せず、該当イベントのみスキップされる。
	ErrTranslation = errors.New("リモートイベントの変換に失敗しました")
)

// ProviderError はプロバイダーが返した非2xx応答を表す。
// 401/403はErrUnauthorizedに分類されるため、ここには含まれない。
type ProviderError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return fmt.Sprintf("プロバイダーがステータス %d を返しました: %s", e.StatusCode, e.Body)
}
