package calsync

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/housemate/internal/calendar"
)

// mockReconciler はテスト用の調停パス実装。
type mockReconciler struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context) (*calendar.SyncResult, error)
}

func (m *mockReconciler) PullAndReconcile(ctx context.Context) (*calendar.SyncResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx)
	}
	return &calendar.SyncResult{Synced: 1}, nil
}

func (m *mockReconciler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeAuthChecker は固定の連携状態を返す。
type fakeAuthChecker struct {
	authorized bool
}

func (f *fakeAuthChecker) IsAuthorized() bool { return f.authorized }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunOnce_SkipsWhenUnauthorized は未連携時に調停パスが
// 起動されないことを検証する。
func TestRunOnce_SkipsWhenUnauthorized(t *testing.T) {
	reconciler := &mockReconciler{}
	scheduler := NewScheduler(reconciler, &fakeAuthChecker{authorized: false}, discardLogger())

	scheduler.runOnce(context.Background())

	if got := reconciler.callCount(); got != 0 {
		t.Errorf("PullAndReconcile calls = %d, want 0", got)
	}
}

// TestRunOnce_RunsWhenAuthorized は連携済みなら調停パスが
// 1回実行されることを検証する。
func TestRunOnce_RunsWhenAuthorized(t *testing.T) {
	reconciler := &mockReconciler{}
	scheduler := NewScheduler(reconciler, &fakeAuthChecker{authorized: true}, discardLogger())

	scheduler.runOnce(context.Background())

	if got := reconciler.callCount(); got != 1 {
		t.Errorf("PullAndReconcile calls = %d, want 1", got)
	}
}

// TestRunOnce_SurvivesCredentialExpiry は実行中の資格情報失効で
// パニックせず処理を終えることを検証する。
func TestRunOnce_SurvivesCredentialExpiry(t *testing.T) {
	reconciler := &mockReconciler{
		fn: func(ctx context.Context) (*calendar.SyncResult, error) {
			return nil, calendar.ErrUnauthorized
		},
	}
	scheduler := NewScheduler(reconciler, &fakeAuthChecker{authorized: true}, discardLogger())

	scheduler.runOnce(context.Background())

	if got := reconciler.callCount(); got != 1 {
		t.Errorf("PullAndReconcile calls = %d, want 1", got)
	}
}

// TestStart_RunsImmediatelyAndStopsOnCancel は起動直後の即時実行と
// コンテキストキャンセルでの停止を検証する。
func TestStart_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	reconciler := &mockReconciler{}
	scheduler := NewScheduler(reconciler, &fakeAuthChecker{authorized: true}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		scheduler.Start(ctx, 1*time.Hour) // ティッカーは発火させない
		close(done)
	}()

	// 起動直後の1回が観測できるまで待つ
	deadline := time.After(2 * time.Second)
	for reconciler.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial run did not happen")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}

	if got := reconciler.callCount(); got != 1 {
		t.Errorf("PullAndReconcile calls = %d, want 1", got)
	}
}
