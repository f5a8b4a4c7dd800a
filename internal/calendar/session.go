// Package calendar はGoogleカレンダーとの同期サブシステムを提供する。
// 委任認可（OAuth）のハンドシェイク、リモートイベントの取得・作成、
// ローカルストアへの調停（reconciliation）を含む。
package calendar

import "sync"

// CredentialSession はプロセス内で共有される委任認可資格情報を保持する。
// プロセス起動時は空で、認可コード交換の成功によって1回だけ設定される。
// 明示的な失効操作はなく、プロセス再起動でのみクリアされる。
//
// 複数のゴルーチンから同時にアクセスされるため、読み書きはRWMutexで保護し、
// アクセス/リフレッシュの組が中途半端に観測されることはない。
type CredentialSession struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewCredentialSession は空のCredentialSessionを生成する。
func NewCredentialSession() *CredentialSession {
	return &CredentialSession{}
}

// IsAuthorized はアクセス資格情報が設定済みかどうかを返す。
// 資格情報の有効性は検証しない（失効は初回利用時にプロバイダーの401として現れる）。
func (s *CredentialSession) IsAuthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// SetCredentials は資格情報の組を保存する。既存の値は上書きされる。
// refreshは省略可能（プロバイダーが返さない場合は空文字列）。
func (s *CredentialSession) SetCredentials(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// AccessCredential は現在のアクセス資格情報を返す。
// 未設定の場合はErrUnauthorizedを返す。
func (s *CredentialSession) AccessCredential() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return "", ErrUnauthorized
	}
	return s.accessToken, nil
}

// RefreshCredential は保存されているリフレッシュ資格情報を返す。
// 自動リフレッシュは行わない。再取得フローを実装する呼び出し元のために公開している。
func (s *CredentialSession) RefreshCredential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
