package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/model"
	"github.com/hitoshi/housemate/internal/repository"
)

// CheckinHandler は週次チェックインのHTTPハンドラー。
type CheckinHandler struct {
	repo      repository.CheckinRepository
	sanitizer TextSanitizer
}

// NewCheckinHandler はCheckinHandlerを生成する。
func NewCheckinHandler(repo repository.CheckinRepository, sanitizer TextSanitizer) *CheckinHandler {
	return &CheckinHandler{repo: repo, sanitizer: sanitizer}
}

// checkinRequest はチェックイン登録リクエストのボディ。
type checkinRequest struct {
	WeekOf       string `json:"week_of"` // YYYY-MM-DD
	Author       string `json:"author"`
	Mood         int    `json:"mood"`
	StressLevel  int    `json:"stress_level"`
	Satisfaction int    `json:"satisfaction"`
	Highlights   string `json:"highlights"`
	Concerns     string `json:"concerns"`
	Suggestions  string `json:"suggestions"`
}

// checkinResponse はチェックインのAPIレスポンス。
type checkinResponse struct {
	ID           string `json:"id"`
	WeekOf       string `json:"week_of"`
	Author       string `json:"author"`
	Mood         int    `json:"mood"`
	StressLevel  int    `json:"stress_level"`
	Satisfaction int    `json:"satisfaction"`
	Highlights   string `json:"highlights"`
	Concerns     string `json:"concerns"`
	Suggestions  string `json:"suggestions"`
	CreatedAt    string `json:"created_at"`
}

// ListCheckins はチェックイン一覧を返す。
// GET /api/checkins
func (h *CheckinHandler) ListCheckins(w http.ResponseWriter, r *http.Request) {
	checkins, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]checkinResponse, 0, len(checkins))
	for _, checkin := range checkins {
		responses = append(responses, toCheckinResponse(checkin))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateCheckin はチェックインを登録する。
// POST /api/checkins
func (h *CheckinHandler) CreateCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Author == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("authorは必須です"))
		return
	}
	if !isValidScale(req.Mood) || !isValidScale(req.StressLevel) || !isValidScale(req.Satisfaction) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("mood、stress_level、satisfactionは1〜10で指定してください"))
		return
	}

	weekOf := req.WeekOf
	if weekOf == "" {
		weekOf = time.Now().UTC().Format(dateParamLayout)
	} else if _, err := time.Parse(dateParamLayout, weekOf); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("week_ofはYYYY-MM-DD形式で指定してください"))
		return
	}

	checkin := &model.Checkin{
		ID:           uuid.NewString(),
		WeekOf:       weekOf,
		Author:       h.sanitizer.SanitizeText(req.Author),
		Mood:         req.Mood,
		StressLevel:  req.StressLevel,
		Satisfaction: req.Satisfaction,
		Highlights:   h.sanitizer.SanitizeText(req.Highlights),
		Concerns:     h.sanitizer.SanitizeText(req.Concerns),
		Suggestions:  h.sanitizer.SanitizeText(req.Suggestions),
		Timestamp:    time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), checkin); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toCheckinResponse(checkin))
}

// isValidScale は1〜10スケール値の妥当性を検証する。
func isValidScale(value int) bool {
	return value >= 1 && value <= 10
}

// toCheckinResponse はmodel.CheckinからAPIレスポンスに変換する。
func toCheckinResponse(checkin *model.Checkin) checkinResponse {
	return checkinResponse{
		ID:           checkin.ID,
		WeekOf:       checkin.WeekOf,
		Author:       checkin.Author,
		Mood:         checkin.Mood,
		StressLevel:  checkin.StressLevel,
		Satisfaction: checkin.Satisfaction,
		Highlights:   checkin.Highlights,
		Concerns:     checkin.Concerns,
		Suggestions:  checkin.Suggestions,
		CreatedAt:    checkin.Timestamp.Format(time.RFC3339),
	}
}
