package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/housemate/internal/repository"
)

// ExportHandler は全データのJSONエクスポートを提供する。
// バックアップと引っ越し時のデータ持ち出しに使用する。
type ExportHandler struct {
	notes    repository.NoteRepository
	photos   repository.PhotoRepository
	chores   repository.ChoreRepository
	expenses repository.ExpenseRepository
	checkins repository.CheckinRepository
	rules    repository.HouseRuleRepository
	events   repository.CalendarEventRepository
}

// NewExportHandler はExportHandlerを生成する。
func NewExportHandler(
	notes repository.NoteRepository,
	photos repository.PhotoRepository,
	chores repository.ChoreRepository,
	expenses repository.ExpenseRepository,
	checkins repository.CheckinRepository,
	rules repository.HouseRuleRepository,
	events repository.CalendarEventRepository,
) *ExportHandler {
	return &ExportHandler{
		notes:    notes,
		photos:   photos,
		chores:   chores,
		expenses: expenses,
		checkins: checkins,
		rules:    rules,
		events:   events,
	}
}

// houseRuleResponse はハウスルールのAPIレスポンス。
type houseRuleResponse struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
	Active      bool   `json:"active"`
}

// exportResponse は全データのエクスポートレスポンス。
type exportResponse struct {
	ExportedAt string `json:"exported_at"`
	Notes      any    `json:"notes"`
	Photos     any    `json:"photos"`
	Chores     any    `json:"chores"`
	Expenses   any    `json:"expenses"`
	Checkins   any    `json:"checkins"`
	HouseRules any    `json:"house_rules"`
	Events     any    `json:"calendar_events"`
}

// Export は全データをJSONで返す。
// GET /api/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notes, err := h.notes.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	photos, err := h.photos.List(ctx, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	chores, err := h.chores.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	expenses, err := h.expenses.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	checkins, err := h.checkins.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	rules, err := h.rules.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	events, err := h.events.ListByRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	noteList := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		noteList = append(noteList, toNoteResponse(note))
	}
	photoList := make([]photoResponse, 0, len(photos))
	for _, photo := range photos {
		photoList = append(photoList, toPhotoResponse(photo))
	}
	choreList := make([]choreResponse, 0, len(chores))
	for _, chore := range chores {
		choreList = append(choreList, toChoreResponse(chore))
	}
	expenseList := make([]expenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		expenseList = append(expenseList, toExpenseResponse(expense))
	}
	checkinList := make([]checkinResponse, 0, len(checkins))
	for _, checkin := range checkins {
		checkinList = append(checkinList, toCheckinResponse(checkin))
	}
	ruleList := make([]houseRuleResponse, 0, len(rules))
	for _, rule := range rules {
		ruleList = append(ruleList, houseRuleResponse{
			ID:          rule.ID,
			Category:    rule.Category,
			Title:       rule.Title,
			Description: rule.Description,
			CreatedBy:   rule.CreatedBy,
			CreatedAt:   rule.CreatedAt.Format(time.RFC3339),
			Active:      rule.Active,
		})
	}
	eventList := make([]eventResponse, 0, len(events))
	for _, event := range events {
		eventList = append(eventList, toEventResponse(event))
	}

	w.Header().Set("Content-Disposition", `attachment; filename="housemate_export.json"`)
	writeJSONResponse(w, http.StatusOK, exportResponse{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Notes:      noteList,
		Photos:     photoList,
		Chores:     choreList,
		Expenses:   expenseList,
		Checkins:   checkinList,
		HouseRules: ruleList,
		Events:     eventList,
	})
}
