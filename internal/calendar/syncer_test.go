package calendar

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/housemate/internal/model"
)

// mockRemoteClient はテスト用のリモートクライアント。
type mockRemoteClient struct {
	listEventsFn  func(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error)
	createEventFn func(ctx context.Context, accessToken string, draft *RemoteEventDraft) (*RemoteEvent, error)

	listCalls   int
	createCalls int
}

func (m *mockRemoteClient) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
	m.listCalls++
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, accessToken, timeMin, timeMax)
	}
	return nil, nil
}

func (m *mockRemoteClient) CreateEvent(ctx context.Context, accessToken string, draft *RemoteEventDraft) (*RemoteEvent, error) {
	m.createCalls++
	if m.createEventFn != nil {
		return m.createEventFn(ctx, accessToken, draft)
	}
	return &RemoteEvent{ID: "remote-created"}, nil
}

// mockEventRepo はテスト用のカレンダーイベントリポジトリ。
type mockEventRepo struct {
	insertFn  func(ctx context.Context, event *model.CalendarEvent) error
	replaceFn func(ctx context.Context, events []*model.CalendarEvent) error

	insertCalls  int
	replaceCalls int
	replaced     []*model.CalendarEvent
	inserted     []*model.CalendarEvent
}

func (m *mockEventRepo) Insert(ctx context.Context, event *model.CalendarEvent) error {
	m.insertCalls++
	m.inserted = append(m.inserted, event)
	if m.insertFn != nil {
		return m.insertFn(ctx, event)
	}
	return nil
}

func (m *mockEventRepo) ReplaceRemoteEvents(ctx context.Context, events []*model.CalendarEvent) error {
	m.replaceCalls++
	m.replaced = events
	if m.replaceFn != nil {
		return m.replaceFn(ctx, events)
	}
	return nil
}

func (m *mockEventRepo) ListByRange(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error) {
	return nil, nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	return nil, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *model.CalendarEvent) error { return nil }
func (m *mockEventRepo) Delete(ctx context.Context, id string) error                  { return nil }
func (m *mockEventRepo) CountByOrigin(ctx context.Context, origin model.EventOrigin) (int, error) {
	return 0, nil
}

// mockSyncMetrics はテスト用のメトリクス収集。
type mockSyncMetrics struct {
	syncSuccess int
	syncFail    int
	pushSuccess int
	pushFail    int
	synced      int
	skipped     int
}

func (m *mockSyncMetrics) RecordSyncSuccess(synced, skipped int) {
	m.syncSuccess++
	m.synced += synced
	m.skipped += skipped
}
func (m *mockSyncMetrics) RecordSyncFailure() { m.syncFail++ }
func (m *mockSyncMetrics) RecordPushSuccess() { m.pushSuccess++ }
func (m *mockSyncMetrics) RecordPushFailure() { m.pushFail++ }

func newTestSyncer(client *mockRemoteClient, repo *mockEventRepo, m *mockSyncMetrics) (*Syncer, *CredentialSession) {
	session := NewCredentialSession()
	translator := NewTranslator(passthroughSanitizer{}, "America/New_York")
	syncer := NewSyncer(session, client, translator, repo, m, slog.Default(), 30)
	return syncer, session
}

// TestPullAndReconcile_SkipsUnparseableEvents は変換不能なイベントを
// スキップし、残りを同期することを検証する。
func TestPullAndReconcile_SkipsUnparseableEvents(t *testing.T) {
	client := &mockRemoteClient{
		listEventsFn: func(ctx context.Context, token string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
			return []RemoteEvent{
				{ID: "ev-1", Summary: "夕食会", Start: &RemoteEventTime{DateTime: "2026-09-02T18:00:00Z"}},
				{ID: "ev-2", Summary: "壊れたイベント"}, // startなし
				{ID: "ev-3", Summary: "大掃除", Start: &RemoteEventTime{Date: "2026-09-05"}},
			}, nil
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	result, err := syncer.PullAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("PullAndReconcile() error = %v", err)
	}

	if result.Synced != 2 {
		t.Errorf("Synced = %d, want 2", result.Synced)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if repo.replaceCalls != 1 {
		t.Fatalf("replaceCalls = %d, want 1", repo.replaceCalls)
	}
	if len(repo.replaced) != 2 {
		t.Fatalf("len(replaced) = %d, want 2", len(repo.replaced))
	}
	for _, event := range repo.replaced {
		if event.Origin != model.EventOriginRemoteSync {
			t.Errorf("Origin = %q, want %q", event.Origin, model.EventOriginRemoteSync)
		}
		if event.CreatedBy != model.RemoteCreatedBy {
			t.Errorf("CreatedBy = %q, want %q", event.CreatedBy, model.RemoteCreatedBy)
		}
	}
	if metrics.syncSuccess != 1 || metrics.synced != 2 || metrics.skipped != 1 {
		t.Errorf("metrics = %+v, want syncSuccess=1 synced=2 skipped=1", metrics)
	}
}

// TestPullAndReconcile_EmptyRemote はリモートが空の場合に
// 空の全置換が実行されることを検証する（ローカルのremote_syncが消える）。
func TestPullAndReconcile_EmptyRemote(t *testing.T) {
	client := &mockRemoteClient{
		listEventsFn: func(ctx context.Context, token string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
			return []RemoteEvent{}, nil
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	result, err := syncer.PullAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("PullAndReconcile() error = %v", err)
	}

	if result.Synced != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want Synced=0 Skipped=0", result)
	}
	if repo.replaceCalls != 1 {
		t.Errorf("replaceCalls = %d, want 1 (empty replace must still run)", repo.replaceCalls)
	}
	if len(repo.replaced) != 0 {
		t.Errorf("len(replaced) = %d, want 0", len(repo.replaced))
	}
}

// TestPullAndReconcile_ListFailureLeavesStoreUntouched は取得失敗時に
// ローカルストアが一切変更されないことを検証する。
func TestPullAndReconcile_ListFailureLeavesStoreUntouched(t *testing.T) {
	client := &mockRemoteClient{
		listEventsFn: func(ctx context.Context, token string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
			return nil, ErrNetwork
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	_, err := syncer.PullAndReconcile(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("PullAndReconcile() error = %v, want ErrNetwork", err)
	}
	if repo.replaceCalls != 0 {
		t.Errorf("replaceCalls = %d, want 0", repo.replaceCalls)
	}
	if metrics.syncFail != 1 {
		t.Errorf("syncFail = %d, want 1", metrics.syncFail)
	}
}

// TestPullAndReconcile_Unauthorized は未連携状態で調停パスが
// 起動しないことを検証する。
func TestPullAndReconcile_Unauthorized(t *testing.T) {
	client := &mockRemoteClient{}
	repo := &mockEventRepo{}
	syncer, _ := newTestSyncer(client, repo, &mockSyncMetrics{})

	_, err := syncer.PullAndReconcile(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("PullAndReconcile() error = %v, want ErrUnauthorized", err)
	}
	if client.listCalls != 0 {
		t.Errorf("listCalls = %d, want 0", client.listCalls)
	}
	if repo.replaceCalls != 0 {
		t.Errorf("replaceCalls = %d, want 0", repo.replaceCalls)
	}
}

// TestPullAndReconcile_Idempotent は同一のリモート状態に対する
// 連続実行が同じ結果になることを検証する。
func TestPullAndReconcile_Idempotent(t *testing.T) {
	client := &mockRemoteClient{
		listEventsFn: func(ctx context.Context, token string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
			return []RemoteEvent{
				{ID: "ev-1", Summary: "夕食会", Start: &RemoteEventTime{DateTime: "2026-09-02T18:00:00Z"}},
			}, nil
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	first, err := syncer.PullAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("first PullAndReconcile() error = %v", err)
	}
	second, err := syncer.PullAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("second PullAndReconcile() error = %v", err)
	}

	if first.Synced != second.Synced || first.Skipped != second.Skipped {
		t.Errorf("results differ: first=%+v second=%+v", first, second)
	}
	if repo.replaceCalls != 2 {
		t.Errorf("replaceCalls = %d, want 2", repo.replaceCalls)
	}
	if len(repo.replaced) != 1 {
		t.Errorf("len(replaced) = %d, want 1 after each pass", len(repo.replaced))
	}
}

// TestPushEvent_Success はプッシュ成功時にリモートIDを保持した
// ローカルレコードが保存されることを検証する。
func TestPushEvent_Success(t *testing.T) {
	client := &mockRemoteClient{
		createEventFn: func(ctx context.Context, token string, draft *RemoteEventDraft) (*RemoteEvent, error) {
			return &RemoteEvent{ID: "ext-42", Summary: draft.Summary}, nil
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	start := time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	result, err := syncer.PushEvent(context.Background(), &model.EventDraft{
		Title:     "ハウスミーティング",
		Start:     start,
		End:       &end,
		CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("PushEvent() error = %v", err)
	}

	if result.RemoteID != "ext-42" {
		t.Errorf("RemoteID = %q, want %q", result.RemoteID, "ext-42")
	}
	if result.LocalID == "" {
		t.Error("LocalID should be set")
	}
	if repo.insertCalls != 1 {
		t.Fatalf("insertCalls = %d, want 1", repo.insertCalls)
	}

	saved := repo.inserted[0]
	if saved.RemoteID != "ext-42" {
		t.Errorf("saved RemoteID = %q, want %q", saved.RemoteID, "ext-42")
	}
	if saved.Origin != model.EventOriginLocal {
		t.Errorf("saved Origin = %q, want %q", saved.Origin, model.EventOriginLocal)
	}
	if saved.ID != result.LocalID {
		t.Errorf("saved ID = %q, want %q", saved.ID, result.LocalID)
	}
	if metrics.pushSuccess != 1 {
		t.Errorf("pushSuccess = %d, want 1", metrics.pushSuccess)
	}
}

// TestPushEvent_ValidationFailureSkipsNetwork は必須項目不足時に
// ネットワークにもストアにも触れないことを検証する。
func TestPushEvent_ValidationFailureSkipsNetwork(t *testing.T) {
	client := &mockRemoteClient{}
	repo := &mockEventRepo{}
	syncer, session := newTestSyncer(client, repo, &mockSyncMetrics{})
	session.SetCredentials("access-token", "")

	// 終了時刻なし
	_, err := syncer.PushEvent(context.Background(), &model.EventDraft{
		Title: "ハウスミーティング",
		Start: time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("PushEvent() error = %v, want ErrValidation", err)
	}
	if client.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", client.createCalls)
	}
	if repo.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", repo.insertCalls)
	}
}

// TestPushEvent_ProviderFailureSkipsStore はプロバイダー側の作成失敗時に
// ローカルストアへ書き込まないことを検証する。
func TestPushEvent_ProviderFailureSkipsStore(t *testing.T) {
	client := &mockRemoteClient{
		createEventFn: func(ctx context.Context, token string, draft *RemoteEventDraft) (*RemoteEvent, error) {
			return nil, &ProviderError{StatusCode: 500, Body: "boom"}
		},
	}
	repo := &mockEventRepo{}
	metrics := &mockSyncMetrics{}
	syncer, session := newTestSyncer(client, repo, metrics)
	session.SetCredentials("access-token", "")

	start := time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := syncer.PushEvent(context.Background(), &model.EventDraft{
		Title: "t", Start: start, End: &end,
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Errorf("PushEvent() error = %v, want ProviderError", err)
	}
	if repo.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", repo.insertCalls)
	}
	if metrics.pushFail != 1 {
		t.Errorf("pushFail = %d, want 1", metrics.pushFail)
	}
}

// TestPushEvent_Unauthorized は未連携状態でのプッシュが
// ErrUnauthorizedを返すことを検証する。
func TestPushEvent_Unauthorized(t *testing.T) {
	client := &mockRemoteClient{}
	repo := &mockEventRepo{}
	syncer, _ := newTestSyncer(client, repo, &mockSyncMetrics{})

	start := time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := syncer.PushEvent(context.Background(), &model.EventDraft{
		Title: "t", Start: start, End: &end,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("PushEvent() error = %v, want ErrUnauthorized", err)
	}
	if client.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", client.createCalls)
	}
}
