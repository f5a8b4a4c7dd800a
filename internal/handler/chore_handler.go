package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/model"
	"github.com/hitoshi/housemate/internal/repository"
)

// ChoreHandler は家事タスクのHTTPハンドラー。
type ChoreHandler struct {
	repo      repository.ChoreRepository
	sanitizer TextSanitizer
}

// NewChoreHandler はChoreHandlerを生成する。
func NewChoreHandler(repo repository.ChoreRepository, sanitizer TextSanitizer) *ChoreHandler {
	return &ChoreHandler{repo: repo, sanitizer: sanitizer}
}

// choreRequest はタスク作成/更新リクエストのボディ。
type choreRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	AssignedTo        string `json:"assigned_to"`
	DueDate           string `json:"due_date"` // YYYY-MM-DD、省略可
	Status            string `json:"status"`
	CreatedBy         string `json:"created_by"`
	Recurring         bool   `json:"recurring"`
	RecurringInterval string `json:"recurring_interval"`
}

// choreResponse はタスクのAPIレスポンス。
type choreResponse struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	AssignedTo        string `json:"assigned_to"`
	DueDate           string `json:"due_date,omitempty"`
	Status            string `json:"status"`
	CreatedBy         string `json:"created_by"`
	CreatedAt         string `json:"created_at"`
	CompletedAt       string `json:"completed_at,omitempty"`
	Recurring         bool   `json:"recurring"`
	RecurringInterval string `json:"recurring_interval,omitempty"`
}

// ListChores はタスク一覧を返す。
// GET /api/chores
func (h *ChoreHandler) ListChores(w http.ResponseWriter, r *http.Request) {
	chores, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]choreResponse, 0, len(chores))
	for _, chore := range chores {
		responses = append(responses, toChoreResponse(chore))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateChore はタスクを作成する。
// POST /api/chores
func (h *ChoreHandler) CreateChore(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("タイトルが空です"))
		return
	}

	dueDate, apiErr := parseOptionalDate(req.DueDate)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	status := model.ChoreStatus(req.Status)
	if status == "" {
		status = model.ChoreStatusPending
	}
	if !isValidChoreStatus(status) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("statusはpending、in_progress、completedのいずれかを指定してください"))
		return
	}

	chore := &model.Chore{
		ID:                uuid.NewString(),
		Title:             h.sanitizer.SanitizeText(req.Title),
		Description:       h.sanitizer.SanitizeText(req.Description),
		AssignedTo:        h.sanitizer.SanitizeText(req.AssignedTo),
		DueDate:           dueDate,
		Status:            status,
		CreatedBy:         h.sanitizer.SanitizeText(req.CreatedBy),
		CreatedAt:         time.Now().UTC(),
		Recurring:         req.Recurring,
		RecurringInterval: req.RecurringInterval,
	}

	if err := h.repo.Create(r.Context(), chore); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toChoreResponse(chore))
}

// UpdateChore はタスクを更新する。
// completedへの遷移時にCompletedAtを記録し、それ以外への遷移でクリアする。
// PUT /api/chores/:id
func (h *ChoreHandler) UpdateChore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	chore, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if chore == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("家事タスク", id))
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	dueDate, apiErr := parseOptionalDate(req.DueDate)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	status := model.ChoreStatus(req.Status)
	if status == "" {
		status = chore.Status
	}
	if !isValidChoreStatus(status) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("statusはpending、in_progress、completedのいずれかを指定してください"))
		return
	}

	if req.Title != "" {
		chore.Title = h.sanitizer.SanitizeText(req.Title)
	}
	chore.Description = h.sanitizer.SanitizeText(req.Description)
	chore.AssignedTo = h.sanitizer.SanitizeText(req.AssignedTo)
	chore.DueDate = dueDate
	chore.Recurring = req.Recurring
	chore.RecurringInterval = req.RecurringInterval

	if status == model.ChoreStatusCompleted && chore.Status != model.ChoreStatusCompleted {
		now := time.Now().UTC()
		chore.CompletedAt = &now
	} else if status != model.ChoreStatusCompleted {
		chore.CompletedAt = nil
	}
	chore.Status = status

	if err := h.repo.Update(r.Context(), chore); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toChoreResponse(chore))
}

// DeleteChore はタスクを削除する。
// DELETE /api/chores/:id
func (h *ChoreHandler) DeleteChore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	chore, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if chore == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("家事タスク", id))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseOptionalDate はYYYY-MM-DD形式の日付を解析する。空文字列はnilを返す。
func parseOptionalDate(value string) (*time.Time, *model.APIError) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateParamLayout, value)
	if err != nil {
		return nil, model.NewValidationError("日付はYYYY-MM-DD形式で指定してください")
	}
	return &parsed, nil
}

// isValidChoreStatus はタスク状態の妥当性を検証する。
func isValidChoreStatus(status model.ChoreStatus) bool {
	switch status {
	case model.ChoreStatusPending, model.ChoreStatusInProgress, model.ChoreStatusCompleted:
		return true
	default:
		return false
	}
}

// toChoreResponse はmodel.ChoreからAPIレスポンスに変換する。
func toChoreResponse(chore *model.Chore) choreResponse {
	resp := choreResponse{
		ID:                chore.ID,
		Title:             chore.Title,
		Description:       chore.Description,
		AssignedTo:        chore.AssignedTo,
		Status:            string(chore.Status),
		CreatedBy:         chore.CreatedBy,
		CreatedAt:         chore.CreatedAt.Format(time.RFC3339),
		Recurring:         chore.Recurring,
		RecurringInterval: chore.RecurringInterval,
	}
	if chore.DueDate != nil {
		resp.DueDate = chore.DueDate.Format(dateParamLayout)
	}
	if chore.CompletedAt != nil {
		resp.CompletedAt = chore.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
