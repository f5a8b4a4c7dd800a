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

// TextSanitizer は利用者入力テキストの無害化処理。
type TextSanitizer interface {
	SanitizeText(text string) string
}

// NoteHandler は共有メモのHTTPハンドラー。
type NoteHandler struct {
	repo      repository.NoteRepository
	sanitizer TextSanitizer
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(repo repository.NoteRepository, sanitizer TextSanitizer) *NoteHandler {
	return &NoteHandler{repo: repo, sanitizer: sanitizer}
}

// noteRequest はメモ作成/更新リクエストのボディ。
type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Type    string `json:"type"`
	Pinned  bool   `json:"pinned"`
}

// reactionRequest はリアクショントグルリクエストのボディ。
type reactionRequest struct {
	Emoji  string `json:"emoji"`
	Author string `json:"author"`
}

// noteResponse はメモのAPIレスポンス。
type noteResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	Author    string              `json:"author"`
	Type      string              `json:"type"`
	Pinned    bool                `json:"pinned"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp string              `json:"timestamp"`
}

// ListNotes はメモ一覧を返す。
// GET /api/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, toNoteResponse(note))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateNote はメモを作成する。
// POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Content == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("本文が空です"))
		return
	}

	noteType := req.Type
	if noteType == "" {
		noteType = "general"
	}

	note := &model.Note{
		ID:        uuid.NewString(),
		Title:     h.sanitizer.SanitizeText(req.Title),
		Content:   h.sanitizer.SanitizeText(req.Content),
		Author:    h.sanitizer.SanitizeText(req.Author),
		Type:      noteType,
		Pinned:    req.Pinned,
		Reactions: map[string][]string{},
		Timestamp: time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), note); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toNoteResponse(note))
}

// UpdateNote はメモを更新する。
// PUT /api/notes/:id
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	note, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if note == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("メモ", id))
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	note.Title = h.sanitizer.SanitizeText(req.Title)
	note.Content = h.sanitizer.SanitizeText(req.Content)
	note.Pinned = req.Pinned
	if req.Type != "" {
		note.Type = req.Type
	}

	if err := h.repo.Update(r.Context(), note); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toNoteResponse(note))
}

// DeleteNote はメモを削除する。
// DELETE /api/notes/:id
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	note, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if note == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("メモ", id))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleReaction はメモへの絵文字リアクションをトグルする。
// POST /api/notes/:id/react
func (h *NoteHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Emoji == "" || req.Author == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("emojiとauthorは必須です"))
		return
	}

	note, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if note == nil {
		writeAPIErrorResponse(w, http.StatusNotFound,
			model.NewRecordNotFoundError("メモ", id))
		return
	}

	note.ToggleReaction(req.Emoji, req.Author)

	if err := h.repo.Update(r.Context(), note); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toNoteResponse(note))
}

// toNoteResponse はmodel.NoteからAPIレスポンスに変換する。
func toNoteResponse(note *model.Note) noteResponse {
	reactions := note.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	return noteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Author:    note.Author,
		Type:      note.Type,
		Pinned:    note.Pinned,
		Reactions: reactions,
		Timestamp: note.Timestamp.Format(time.RFC3339),
	}
}
