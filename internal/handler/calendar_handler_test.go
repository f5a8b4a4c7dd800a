package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/housemate/internal/calendar"
	"github.com/hitoshi/housemate/internal/model"
)

// mockAuthClient はテスト用の認可クライアント。
type mockAuthClient struct {
	buildAuthorizationURLFn func(state string) string
	exchangeCodeFn          func(ctx context.Context, code string) (*calendar.TokenPair, error)
}

func (m *mockAuthClient) BuildAuthorizationURL(state string) string {
	if m.buildAuthorizationURLFn != nil {
		return m.buildAuthorizationURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthClient) ExchangeCode(ctx context.Context, code string) (*calendar.TokenPair, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return &calendar.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

// mockSyncer はテスト用の同期オーケストレーター。
type mockSyncer struct {
	pushEventFn        func(ctx context.Context, draft *model.EventDraft) (*calendar.PushResult, error)
	pullAndReconcileFn func(ctx context.Context) (*calendar.SyncResult, error)
}

func (m *mockSyncer) PushEvent(ctx context.Context, draft *model.EventDraft) (*calendar.PushResult, error) {
	if m.pushEventFn != nil {
		return m.pushEventFn(ctx, draft)
	}
	return &calendar.PushResult{RemoteID: "ext-1", LocalID: "local-1"}, nil
}

func (m *mockSyncer) PullAndReconcile(ctx context.Context) (*calendar.SyncResult, error) {
	if m.pullAndReconcileFn != nil {
		return m.pullAndReconcileFn(ctx)
	}
	return &calendar.SyncResult{Synced: 0, Skipped: 0}, nil
}

// mockEventRepo はテスト用のカレンダーイベントリポジトリ。
type mockEventRepo struct {
	insertFn      func(ctx context.Context, event *model.CalendarEvent) error
	listByRangeFn func(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error)
	findByIDFn    func(ctx context.Context, id string) (*model.CalendarEvent, error)

	inserted []*model.CalendarEvent
}

func (m *mockEventRepo) Insert(ctx context.Context, event *model.CalendarEvent) error {
	m.inserted = append(m.inserted, event)
	if m.insertFn != nil {
		return m.insertFn(ctx, event)
	}
	return nil
}

func (m *mockEventRepo) ReplaceRemoteEvents(ctx context.Context, events []*model.CalendarEvent) error {
	return nil
}

func (m *mockEventRepo) ListByRange(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error) {
	if m.listByRangeFn != nil {
		return m.listByRangeFn(ctx, start, end)
	}
	return nil, nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *model.CalendarEvent) error { return nil }
func (m *mockEventRepo) Delete(ctx context.Context, id string) error                  { return nil }
func (m *mockEventRepo) CountByOrigin(ctx context.Context, origin model.EventOrigin) (int, error) {
	return 0, nil
}

func newTestCalendarHandler(client *mockAuthClient, syncer *mockSyncer, repo *mockEventRepo) (*CalendarHandler, *calendar.CredentialSession) {
	session := calendar.NewCredentialSession()
	h := NewCalendarHandler(client, session, syncer, repo, "http://localhost:3000")
	return h, session
}

// TestAuthURL_ReturnsAuthorizationURL は認可URLがJSONで返ることを検証する。
func TestAuthURL_ReturnsAuthorizationURL(t *testing.T) {
	h, _ := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	w := httptest.NewRecorder()

	h.AuthURL(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body authURLResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !strings.HasPrefix(body.AuthURL, "https://accounts.google.com/") {
		t.Errorf("AuthURL = %q, want accounts.google.com prefix", body.AuthURL)
	}
}

// TestCallback_Success は認可コード交換後に資格情報が保存され、
// フロントエンドへリダイレクトされることを検証する。
func TestCallback_Success(t *testing.T) {
	client := &mockAuthClient{
		exchangeCodeFn: func(ctx context.Context, code string) (*calendar.TokenPair, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			return &calendar.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	h, session := newTestCalendarHandler(client, &mockSyncer{}, &mockEventRepo{})

	// 先にAuthURLでstateを発行する
	authReq := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	authRec := httptest.NewRecorder()
	h.AuthURL(authRec, authReq)

	var authBody authURLResponse
	json.NewDecoder(authRec.Body).Decode(&authBody)
	state := authBody.AuthURL[strings.Index(authBody.AuthURL, "state=")+len("state="):]

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/google/callback?code=auth-code&state="+state, nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusFound, w.Body.String())
	}
	if !session.IsAuthorized() {
		t.Error("session should be authorized after callback")
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "http://localhost:3000/") {
		t.Errorf("Location = %q, want frontend redirect", loc)
	}
}

// TestCallback_MissingCode は認可コードなしのコールバックが400になることを検証する。
func TestCallback_MissingCode(t *testing.T) {
	h, session := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if session.IsAuthorized() {
		t.Error("session should not be authorized")
	}
}

// TestCallback_StateMismatch はstate不一致のコールバックが拒否されることを検証する。
func TestCallback_StateMismatch(t *testing.T) {
	h, session := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, &mockEventRepo{})

	// stateを発行せずに偽のstateでコールバック
	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/google/callback?code=auth-code&state=forged", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if session.IsAuthorized() {
		t.Error("session should not be authorized")
	}
}

// TestAuthStatus は連携状態の遷移がレスポンスに反映されることを検証する。
func TestAuthStatus(t *testing.T) {
	h, session := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/status", nil)
	w := httptest.NewRecorder()
	h.AuthStatus(w, req)

	var body authStatusResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Authorized {
		t.Error("Authorized = true, want false before linking")
	}

	session.SetCredentials("access", "refresh")

	w = httptest.NewRecorder()
	h.AuthStatus(w, req)
	json.NewDecoder(w.Body).Decode(&body)
	if !body.Authorized {
		t.Error("Authorized = false, want true after linking")
	}
}

// TestSync_Success は同期結果がJSONで返ることを検証する。
func TestSync_Success(t *testing.T) {
	syncer := &mockSyncer{
		pullAndReconcileFn: func(ctx context.Context) (*calendar.SyncResult, error) {
			return &calendar.SyncResult{Synced: 5, Skipped: 1}, nil
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, syncer, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/calendar/sync", nil)
	w := httptest.NewRecorder()

	h.Sync(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body calendar.SyncResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Synced != 5 || body.Skipped != 1 {
		t.Errorf("body = %+v, want Synced=5 Skipped=1", body)
	}
}

// TestSync_Unauthorized は未連携時の同期が401と
// GOOGLE_UNAUTHORIZEDコードを返すことを検証する。
func TestSync_Unauthorized(t *testing.T) {
	syncer := &mockSyncer{
		pullAndReconcileFn: func(ctx context.Context) (*calendar.SyncResult, error) {
			return nil, calendar.ErrUnauthorized
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, syncer, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/calendar/sync", nil)
	w := httptest.NewRecorder()

	h.Sync(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var body apiErrorResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Code != model.ErrCodeGoogleUnauthorized {
		t.Errorf("Code = %q, want %q", body.Code, model.ErrCodeGoogleUnauthorized)
	}
}

// TestSync_ProviderError はプロバイダーエラーが502に変換されることを検証する。
func TestSync_ProviderError(t *testing.T) {
	syncer := &mockSyncer{
		pullAndReconcileFn: func(ctx context.Context) (*calendar.SyncResult, error) {
			return nil, &calendar.ProviderError{StatusCode: 503, Body: "unavailable"}
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, syncer, &mockEventRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/calendar/sync", nil)
	w := httptest.NewRecorder()

	h.Sync(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

// TestPushEvent_Success はプッシュ結果が201で返ることを検証する。
func TestPushEvent_Success(t *testing.T) {
	syncer := &mockSyncer{
		pushEventFn: func(ctx context.Context, draft *model.EventDraft) (*calendar.PushResult, error) {
			if draft.Title != "ハウスミーティング" {
				t.Errorf("Title = %q, want %q", draft.Title, "ハウスミーティング")
			}
			if draft.End == nil {
				t.Error("End should be set")
			}
			return &calendar.PushResult{RemoteID: "ext-42", LocalID: "local-1"}, nil
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, syncer, &mockEventRepo{})

	payload := `{"title":"ハウスミーティング","start":"2026-09-10T19:00:00Z","end":"2026-09-10T20:00:00Z","created_by":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/google-events",
		strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.PushEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var body calendar.PushResult
	json.NewDecoder(w.Body).Decode(&body)
	if body.RemoteID != "ext-42" {
		t.Errorf("RemoteID = %q, want %q", body.RemoteID, "ext-42")
	}
}

// TestPushEvent_ValidationError は下書き検証の失敗が400になることを検証する。
func TestPushEvent_ValidationError(t *testing.T) {
	syncer := &mockSyncer{
		pushEventFn: func(ctx context.Context, draft *model.EventDraft) (*calendar.PushResult, error) {
			return nil, calendar.ErrValidation
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, syncer, &mockEventRepo{})

	payload := `{"title":"終了時刻なし","start":"2026-09-10T19:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/google-events",
		strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.PushEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestCreateEvent_Local はローカル作成イベントがorigin=localで
// 保存されることを検証する。
func TestCreateEvent_Local(t *testing.T) {
	repo := &mockEventRepo{}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, repo)

	payload := `{"title":"誕生日会","start":"2026-09-15T18:00:00Z","created_by":"bob"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/events",
		strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(repo.inserted))
	}
	if repo.inserted[0].Origin != model.EventOriginLocal {
		t.Errorf("Origin = %q, want %q", repo.inserted[0].Origin, model.EventOriginLocal)
	}
	if repo.inserted[0].RemoteID != "" {
		t.Errorf("RemoteID = %q, want empty for local event", repo.inserted[0].RemoteID)
	}
}

// TestListEvents_InvalidDateRange は不正な日付範囲指定が400になることを検証する。
func TestListEvents_InvalidDateRange(t *testing.T) {
	h, _ := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, &mockEventRepo{})

	tests := []string{
		"/api/calendar/events?start_date=2026-09-01",               // end_dateなし
		"/api/calendar/events?start_date=bad&end_date=2026-09-30",  // 形式不正
		"/api/calendar/events?start_date=2026-09-30&end_date=2026-09-01", // 逆転
	}

	for _, target := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		h.ListEvents(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

// TestListEvents_RangeIsInclusive はend_dateの日全体が範囲に
// 含まれることを検証する。
func TestListEvents_RangeIsInclusive(t *testing.T) {
	var gotStart, gotEnd time.Time
	repo := &mockEventRepo{
		listByRangeFn: func(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		},
	}
	h, _ := newTestCalendarHandler(&mockAuthClient{}, &mockSyncer{}, repo)

	req := httptest.NewRequest(http.MethodGet,
		"/api/calendar/events?start_date=2026-09-01&end_date=2026-09-30", nil)
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	wantStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if !gotStart.Equal(wantStart) {
		t.Errorf("start = %v, want %v", gotStart, wantStart)
	}
	if !gotEnd.Equal(wantEnd) {
		t.Errorf("end = %v, want %v (end_dateの翌日0時)", gotEnd, wantEnd)
	}
}
