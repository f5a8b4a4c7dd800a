package calendar

import (
	"errors"
	"sync"
	"testing"
)

// TestCredentialSession_InitialState は起動直後のセッションが
// 未連携状態であることを検証する。
func TestCredentialSession_InitialState(t *testing.T) {
	session := NewCredentialSession()

	if session.IsAuthorized() {
		t.Error("IsAuthorized() = true, want false")
	}

	_, err := session.AccessCredential()
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("AccessCredential() error = %v, want ErrUnauthorized", err)
	}
}

// TestCredentialSession_SetCredentials は資格情報の設定後に
// 連携済み状態へ遷移することを検証する。
func TestCredentialSession_SetCredentials(t *testing.T) {
	session := NewCredentialSession()
	session.SetCredentials("access-token", "refresh-token")

	if !session.IsAuthorized() {
		t.Error("IsAuthorized() = false, want true")
	}

	token, err := session.AccessCredential()
	if err != nil {
		t.Fatalf("AccessCredential() error = %v", err)
	}
	if token != "access-token" {
		t.Errorf("AccessCredential() = %q, want %q", token, "access-token")
	}
	if session.RefreshCredential() != "refresh-token" {
		t.Errorf("RefreshCredential() = %q, want %q", session.RefreshCredential(), "refresh-token")
	}
}

// TestCredentialSession_Overwrite は再連携で資格情報が上書きされることを検証する。
func TestCredentialSession_Overwrite(t *testing.T) {
	session := NewCredentialSession()
	session.SetCredentials("old-access", "old-refresh")
	session.SetCredentials("new-access", "new-refresh")

	token, err := session.AccessCredential()
	if err != nil {
		t.Fatalf("AccessCredential() error = %v", err)
	}
	if token != "new-access" {
		t.Errorf("AccessCredential() = %q, want %q", token, "new-access")
	}
}

// TestCredentialSession_EmptyRefresh はリフレッシュ資格情報なしの設定でも
// 連携済み状態になることを検証する。
func TestCredentialSession_EmptyRefresh(t *testing.T) {
	session := NewCredentialSession()
	session.SetCredentials("access-only", "")

	if !session.IsAuthorized() {
		t.Error("IsAuthorized() = false, want true")
	}
	if session.RefreshCredential() != "" {
		t.Errorf("RefreshCredential() = %q, want empty", session.RefreshCredential())
	}
}

// TestCredentialSession_ConcurrentAccess は並行アクセスで
// データ競合が発生しないことを検証する（-raceで検出）。
func TestCredentialSession_ConcurrentAccess(t *testing.T) {
	session := NewCredentialSession()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			session.SetCredentials("access", "refresh")
		}()
		go func() {
			defer wg.Done()
			_ = session.IsAuthorized()
			_, _ = session.AccessCredential()
		}()
	}
	wg.Wait()
}
