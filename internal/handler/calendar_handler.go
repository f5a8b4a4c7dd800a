// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/calendar"
	"github.com/hitoshi/housemate/internal/model"
	"github.com/hitoshi/housemate/internal/repository"
)

// 日付範囲クエリパラメータの形式。
const dateParamLayout = "2006-01-02"

// AuthClientInterface は認可ハンドラーが必要とするクライアント操作。
type AuthClientInterface interface {
	// BuildAuthorizationURL は認可URLを組み立てる。
	BuildAuthorizationURL(state string) string
	// ExchangeCode は認可コードを資格情報の組に交換する。
	ExchangeCode(ctx context.Context, code string) (*calendar.TokenPair, error)
}

// SyncerInterface はカレンダーハンドラーが必要とする同期操作。
type SyncerInterface interface {
	// PushEvent はイベントをプロバイダーに作成し、ローカルにも保存する。
	PushEvent(ctx context.Context, draft *model.EventDraft) (*calendar.PushResult, error)
	// PullAndReconcile はプロバイダーの状態でローカルの同期レコードを全置換する。
	PullAndReconcile(ctx context.Context) (*calendar.SyncResult, error)
}

// CalendarHandler はカレンダー同期と連携認可のHTTPハンドラー。
type CalendarHandler struct {
	client      AuthClientInterface
	session     *calendar.CredentialSession
	syncer      SyncerInterface
	repo        repository.CalendarEventRepository
	redirectURL string // 認可完了後に利用者を戻すフロントエンドURL

	stateMu       sync.Mutex
	expectedState string
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(
	client AuthClientInterface,
	session *calendar.CredentialSession,
	syncer SyncerInterface,
	repo repository.CalendarEventRepository,
	redirectURL string,
) *CalendarHandler {
	return &CalendarHandler{
		client:      client,
		session:     session,
		syncer:      syncer,
		repo:        repo,
		redirectURL: redirectURL,
	}
}

// authURLResponse は認可URLのAPIレスポンス。
type authURLResponse struct {
	AuthURL string `json:"auth_url"`
}

// authStatusResponse は連携状態のAPIレスポンス。
type authStatusResponse struct {
	Authorized bool `json:"authorized"`
}

// eventRequest はイベント作成/更新リクエストのボディ。
type eventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Start       string   `json:"start"` // RFC3339
	End         string   `json:"end"`   // RFC3339、省略可（ローカル作成のみ）
	CreatedBy   string   `json:"created_by"`
	Attendees   []string `json:"attendees"`
	Location    string   `json:"location"`
}

// eventResponse はイベントのAPIレスポンス。
type eventResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"`
	Origin      string   `json:"origin"`
	CreatedBy   string   `json:"created_by"`
	Attendees   []string `json:"attendees"`
	Location    string   `json:"location"`
	RemoteID    string   `json:"remote_id,omitempty"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// AuthURL は連携開始用の認可URLを返す。
// GET /api/auth/google
func (h *CalendarHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	h.stateMu.Lock()
	h.expectedState = state
	h.stateMu.Unlock()

	writeJSONResponse(w, http.StatusOK, authURLResponse{
		AuthURL: h.client.BuildAuthorizationURL(state),
	})
}

// Callback は認可コードを資格情報に交換し、利用者をフロントエンドに戻す。
// GET /api/auth/google/callback
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("認可コードがありません"))
		return
	}

	state := r.URL.Query().Get("state")
	h.stateMu.Lock()
	expected := h.expectedState
	h.expectedState = ""
	h.stateMu.Unlock()

	if expected == "" || state != expected {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("stateが一致しません"))
		return
	}

	pair, err := h.client.ExchangeCode(r.Context(), code)
	if err != nil {
		slog.Error("認可コードの交換に失敗しました", slog.String("error", err.Error()))
		handleCalendarError(w, err)
		return
	}

	h.session.SetCredentials(pair.AccessToken, pair.RefreshToken)
	slog.Info("Googleカレンダーと連携しました")

	http.Redirect(w, r, h.redirectURL+"/?google_auth=success", http.StatusFound)
}

// AuthStatus は現在の連携状態を返す。
// GET /api/auth/google/status
func (h *CalendarHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, authStatusResponse{
		Authorized: h.session.IsAuthorized(),
	})
}

// Sync は調停パスを1回実行する。
// POST /api/calendar/sync
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.PullAndReconcile(r.Context())
	if err != nil {
		handleCalendarError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// PushEvent はイベントをプロバイダーに作成し、ローカルにも保存する。
// POST /api/calendar/google-events
func (h *CalendarHandler) PushEvent(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeEventDraft(w, r)
	if !ok {
		return
	}

	result, err := h.syncer.PushEvent(r.Context(), draft)
	if err != nil {
		handleCalendarError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, result)
}

// ListEvents はローカルストアのイベント一覧を返す。
// GET /api/calendar/events
// start_date/end_dateクエリパラメータ（YYYY-MM-DD）で範囲を絞り込める。
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	start, end, apiErr := parseDateRangeParams(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	events, err := h.repo.ListByRange(r.Context(), start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateEvent はローカルのみのイベントを作成する。プロバイダーには送信しない。
// POST /api/calendar/events
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeEventDraft(w, r)
	if !ok {
		return
	}

	event := &model.CalendarEvent{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Start:       draft.Start,
		End:         draft.End,
		Origin:      model.EventOriginLocal,
		CreatedBy:   draft.CreatedBy,
		Attendees:   draft.Attendees,
		Location:    draft.Location,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.repo.Insert(r.Context(), event); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toEventResponse(event))
}

// UpdateEvent はイベントを更新する。
// PUT /api/calendar/events/:id
func (h *CalendarHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if event == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("イベント", id))
		return
	}

	draft, ok := decodeEventDraft(w, r)
	if !ok {
		return
	}

	event.Title = draft.Title
	event.Description = draft.Description
	event.Start = draft.Start
	event.End = draft.End
	event.Attendees = draft.Attendees
	event.Location = draft.Location

	if err := h.repo.Update(r.Context(), event); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toEventResponse(event))
}

// DeleteEvent はイベントを削除する。
// DELETE /api/calendar/events/:id
func (h *CalendarHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if event == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("イベント", id))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// decodeEventDraft はリクエストボディからイベント下書きを組み立てる。
// 解析に失敗した場合はエラーレスポンスを書き込み、falseを返す。
func decodeEventDraft(w http.ResponseWriter, r *http.Request) (*model.EventDraft, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return nil, false
	}

	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("タイトルが空です"))
		return nil, false
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("開始時刻はRFC3339形式で指定してください"))
		return nil, false
	}

	draft := &model.EventDraft{
		Title:       req.Title,
		Description: req.Description,
		Start:       start,
		CreatedBy:   req.CreatedBy,
		Attendees:   req.Attendees,
		Location:    req.Location,
	}

	if req.End != "" {
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("終了時刻はRFC3339形式で指定してください"))
			return nil, false
		}
		draft.End = &end
	}

	return draft, true
}

// parseDateRangeParams はstart_date/end_dateクエリパラメータを解析する。
// 両方未指定の場合はゼロ値（全件）を返す。
func parseDateRangeParams(r *http.Request) (time.Time, time.Time, *model.APIError) {
	startParam := r.URL.Query().Get("start_date")
	endParam := r.URL.Query().Get("end_date")

	if startParam == "" && endParam == "" {
		return time.Time{}, time.Time{}, nil
	}
	if startParam == "" || endParam == "" {
		return time.Time{}, time.Time{},
			model.NewInvalidDateRangeError("start_dateとend_dateは両方指定してください")
	}

	start, err := time.Parse(dateParamLayout, startParam)
	if err != nil {
		return time.Time{}, time.Time{},
			model.NewInvalidDateRangeError("start_dateの形式が不正です")
	}
	end, err := time.Parse(dateParamLayout, endParam)
	if err != nil {
		return time.Time{}, time.Time{},
			model.NewInvalidDateRangeError("end_dateの形式が不正です")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{},
			model.NewInvalidDateRangeError("end_dateはstart_date以降を指定してください")
	}

	// end_dateの日全体を含めるため翌日0時を終端とする
	return start, end.AddDate(0, 0, 1), nil
}

// toEventResponse はmodel.CalendarEventからAPIレスポンスに変換する。
func toEventResponse(event *model.CalendarEvent) eventResponse {
	resp := eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start.Format(time.RFC3339),
		Origin:      string(event.Origin),
		CreatedBy:   event.CreatedBy,
		Attendees:   event.Attendees,
		Location:    event.Location,
		RemoteID:    event.RemoteID,
	}
	if resp.Attendees == nil {
		resp.Attendees = []string{}
	}
	if event.End != nil {
		resp.End = event.End.Format(time.RFC3339)
	}
	return resp
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleCalendarError は同期サブシステムのエラーを統一フォーマットに変換する。
func handleCalendarError(w http.ResponseWriter, err error) {
	var providerErr *calendar.ProviderError

	switch {
	case errors.Is(err, calendar.ErrUnauthorized):
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewGoogleUnauthorizedError())
	case errors.Is(err, calendar.ErrAuthExchangeFailed):
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewAuthExchangeFailedError())
	case errors.Is(err, calendar.ErrValidation):
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
	case errors.Is(err, calendar.ErrNetwork):
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewNetworkError())
	case errors.As(err, &providerErr):
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewProviderError(providerErr.StatusCode))
	default:
		handleServiceError(w, err)
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeGoogleUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeAuthExchangeFailed:
		return http.StatusBadGateway
	case model.ErrCodeProviderError, model.ErrCodeNetworkError:
		return http.StatusBadGateway
	case model.ErrCodeValidationError, model.ErrCodeInvalidRequest, model.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	case model.ErrCodeRecordNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
