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

// PhotoHandler は写真メタデータのHTTPハンドラー。
// ファイル本体の保存と配信は扱わず、メタデータのみを管理する。
type PhotoHandler struct {
	repo      repository.PhotoRepository
	sanitizer TextSanitizer
}

// NewPhotoHandler はPhotoHandlerを生成する。
func NewPhotoHandler(repo repository.PhotoRepository, sanitizer TextSanitizer) *PhotoHandler {
	return &PhotoHandler{repo: repo, sanitizer: sanitizer}
}

// photoRequest は写真メタデータ登録リクエストのボディ。
type photoRequest struct {
	Filename   string   `json:"filename"`
	Caption    string   `json:"caption"`
	UploadedBy string   `json:"uploaded_by"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
}

// likeRequest はいいねトグルリクエストのボディ。
type likeRequest struct {
	Member string `json:"member"`
}

// photoResponse は写真メタデータのAPIレスポンス。
type photoResponse struct {
	ID         string   `json:"id"`
	Filename   string   `json:"filename"`
	Caption    string   `json:"caption"`
	UploadedBy string   `json:"uploaded_by"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Likes      []string `json:"likes"`
	Timestamp  string   `json:"timestamp"`
}

// ListPhotos は写真メタデータ一覧を返す。categoryクエリで絞り込める。
// GET /api/photos
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	photos, err := h.repo.List(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]photoResponse, 0, len(photos))
	for _, photo := range photos {
		responses = append(responses, toPhotoResponse(photo))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreatePhoto は写真メタデータを登録する。
// POST /api/photos
func (h *PhotoHandler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Filename == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("ファイル名が空です"))
		return
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	photo := &model.Photo{
		ID:         uuid.NewString(),
		Filename:   req.Filename,
		Caption:    h.sanitizer.SanitizeText(req.Caption),
		UploadedBy: h.sanitizer.SanitizeText(req.UploadedBy),
		Category:   category,
		Tags:       req.Tags,
		Likes:      []string{},
		Timestamp:  time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), photo); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toPhotoResponse(photo))
}

// ToggleLike は写真へのいいねをトグルする。
// POST /api/photos/:id/like
func (h *PhotoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Member == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("memberは必須です"))
		return
	}

	photo, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if photo == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("写真", id))
		return
	}

	photo.ToggleLike(req.Member)

	if err := h.repo.UpdateLikes(r.Context(), id, photo.Likes); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toPhotoResponse(photo))
}

// DeletePhoto は写真メタデータを削除する。
// DELETE /api/photos/:id
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	photo, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if photo == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("写真", id))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toPhotoResponse はmodel.PhotoからAPIレスポンスに変換する。
func toPhotoResponse(photo *model.Photo) photoResponse {
	resp := photoResponse{
		ID:         photo.ID,
		Filename:   photo.Filename,
		Caption:    photo.Caption,
		UploadedBy: photo.UploadedBy,
		Category:   photo.Category,
		Tags:       photo.Tags,
		Likes:      photo.Likes,
		Timestamp:  photo.Timestamp.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.Likes == nil {
		resp.Likes = []string{}
	}
	return resp
}
