package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/model"
	"github.com/hitoshi/housemate/internal/repository"
)

// ExpenseHandler は共同支出のHTTPハンドラー。
type ExpenseHandler struct {
	repo      repository.ExpenseRepository
	sanitizer TextSanitizer
}

// NewExpenseHandler はExpenseHandlerを生成する。
func NewExpenseHandler(repo repository.ExpenseRepository, sanitizer TextSanitizer) *ExpenseHandler {
	return &ExpenseHandler{repo: repo, sanitizer: sanitizer}
}

// expenseRequest は支出登録リクエストのボディ。
type expenseRequest struct {
	Title        string   `json:"title"`
	Amount       float64  `json:"amount"`
	Category     string   `json:"category"`
	PaidBy       string   `json:"paid_by"`
	SplitBetween []string `json:"split_between"`
	Date         string   `json:"date"` // YYYY-MM-DD
	Description  string   `json:"description"`
}

// expenseResponse は支出のAPIレスポンス。
type expenseResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Amount       float64  `json:"amount"`
	Category     string   `json:"category"`
	PaidBy       string   `json:"paid_by"`
	SplitBetween []string `json:"split_between"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Settled      bool     `json:"settled"`
}

// ListExpenses は支出一覧を返す。
// GET /api/expenses
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]expenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		responses = append(responses, toExpenseResponse(expense))
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateExpense は支出を登録する。
// POST /api/expenses
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("タイトルが空です"))
		return
	}
	if req.Amount <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("金額は正の値を指定してください"))
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(dateParamLayout, req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("日付はYYYY-MM-DD形式で指定してください"))
			return
		}
		date = parsed
	}

	expense := &model.Expense{
		ID:           uuid.NewString(),
		Title:        h.sanitizer.SanitizeText(req.Title),
		Amount:       req.Amount,
		Category:     req.Category,
		PaidBy:       h.sanitizer.SanitizeText(req.PaidBy),
		SplitBetween: req.SplitBetween,
		Date:         date,
		Description:  h.sanitizer.SanitizeText(req.Description),
		Settled:      false,
	}

	if err := h.repo.Create(r.Context(), expense); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toExpenseResponse(expense))
}

// toExpenseResponse はmodel.ExpenseからAPIレスポンスに変換する。
func toExpenseResponse(expense *model.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           expense.ID,
		Title:        expense.Title,
		Amount:       expense.Amount,
		Category:     expense.Category,
		PaidBy:       expense.PaidBy,
		SplitBetween: expense.SplitBetween,
		Date:         expense.Date.Format(dateParamLayout),
		Description:  expense.Description,
		Settled:      expense.Settled,
	}
	if resp.SplitBetween == nil {
		resp.SplitBetween = []string{}
	}
	return resp
}
