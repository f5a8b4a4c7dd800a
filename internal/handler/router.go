package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/housemate/internal/calendar"
	"github.com/hitoshi/housemate/internal/middleware"
	"github.com/hitoshi/housemate/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// カレンダー同期
	AuthClient  AuthClientInterface
	Session     *calendar.CredentialSession
	Syncer      SyncerInterface
	RedirectURL string

	// サニタイザー
	Sanitizer TextSanitizer

	// リポジトリ
	EventRepo   repository.CalendarEventRepository
	NoteRepo    repository.NoteRepository
	PhotoRepo   repository.PhotoRepository
	ChoreRepo   repository.ChoreRepository
	ExpenseRepo repository.ExpenseRepository
	CheckinRepo repository.CheckinRepository
	RuleRepo    repository.HouseRuleRepository
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// /healthはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	calendarHandler := NewCalendarHandler(
		deps.AuthClient, deps.Session, deps.Syncer, deps.EventRepo, deps.RedirectURL)
	noteHandler := NewNoteHandler(deps.NoteRepo, deps.Sanitizer)
	photoHandler := NewPhotoHandler(deps.PhotoRepo, deps.Sanitizer)
	choreHandler := NewChoreHandler(deps.ChoreRepo, deps.Sanitizer)
	expenseHandler := NewExpenseHandler(deps.ExpenseRepo, deps.Sanitizer)
	checkinHandler := NewCheckinHandler(deps.CheckinRepo, deps.Sanitizer)
	exportHandler := NewExportHandler(
		deps.NoteRepo, deps.PhotoRepo, deps.ChoreRepo,
		deps.ExpenseRepo, deps.CheckinRepo, deps.RuleRepo, deps.EventRepo)

	// ヘルスチェック（レート制限の外）
	r.Get("/health", HealthCheck)

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// Google連携認可
		r.Route("/api/auth/google", func(r chi.Router) {
			r.Get("/", calendarHandler.AuthURL)
			r.Get("/callback", calendarHandler.Callback)
			r.Get("/status", calendarHandler.AuthStatus)
		})

		// カレンダー
		r.Route("/api/calendar", func(r chi.Router) {
			// POST /api/calendar/sync - 調停パス（同期専用レート制限を追加）
			r.With(deps.RateLimiter.SyncMiddleware()).Post("/sync", calendarHandler.Sync)

			// POST /api/calendar/google-events - プロバイダーへのプッシュ
			r.Post("/google-events", calendarHandler.PushEvent)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", calendarHandler.ListEvents)
				r.Post("/", calendarHandler.CreateEvent)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", calendarHandler.UpdateEvent)
					r.Delete("/", calendarHandler.DeleteEvent)
				})
			})
		})

		// 共有メモ
		r.Route("/api/notes", func(r chi.Router) {
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.CreateNote)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", noteHandler.UpdateNote)
				r.Delete("/", noteHandler.DeleteNote)
				r.Post("/react", noteHandler.ToggleReaction)
			})
		})

		// 写真メタデータ
		r.Route("/api/photos", func(r chi.Router) {
			r.Get("/", photoHandler.ListPhotos)
			r.Post("/", photoHandler.CreatePhoto)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", photoHandler.DeletePhoto)
				r.Post("/like", photoHandler.ToggleLike)
			})
		})

		// 家事タスク
		r.Route("/api/chores", func(r chi.Router) {
			r.Get("/", choreHandler.ListChores)
			r.Post("/", choreHandler.CreateChore)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", choreHandler.UpdateChore)
				r.Delete("/", choreHandler.DeleteChore)
			})
		})

		// 共同支出
		r.Route("/api/expenses", func(r chi.Router) {
			r.Get("/", expenseHandler.ListExpenses)
			r.Post("/", expenseHandler.CreateExpense)
		})

		// 週次チェックイン
		r.Route("/api/checkins", func(r chi.Router) {
			r.Get("/", checkinHandler.ListCheckins)
			r.Post("/", checkinHandler.CreateCheckin)
		})

		// エクスポート
		r.Get("/api/export", exportHandler.Export)
	})

	return r
}

// HealthCheck はヘルスチェックエンドポイント。
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
