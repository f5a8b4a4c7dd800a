// Package calsync はカレンダー同期のバックグラウンド実行を提供する。
// 一定間隔で調停パスを起動し、ローカルストアをプロバイダーの状態に追従させる。
package calsync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/housemate/internal/calendar"
)

// Reconciler は調停パスの実行インターフェース。
type Reconciler interface {
	// PullAndReconcile はプロバイダーの状態でローカルの同期レコードを全置換する。
	PullAndReconcile(ctx context.Context) (*calendar.SyncResult, error)
}

// AuthChecker は連携状態の確認インターフェース。
type AuthChecker interface {
	IsAuthorized() bool
}

// Scheduler はカレンダー同期の定期実行を行う。
// 連携が未完了の間は調停パスを起動せずスキップする。
type Scheduler struct {
	reconciler Reconciler
	session    AuthChecker
	logger     *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(reconciler Reconciler, session AuthChecker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		session:    session,
		logger:     logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("カレンダー同期スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("カレンダー同期スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce は調停パスを1回実行する。未連携の場合はスキップする。
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.session.IsAuthorized() {
		s.logger.Info("Google未連携のため同期をスキップします")
		return
	}

	start := time.Now()

	result, err := s.reconciler.PullAndReconcile(ctx)
	if err != nil {
		// 定期実行中に資格情報が失効した場合は次回の連携で回復する
		if errors.Is(err, calendar.ErrUnauthorized) {
			s.logger.Warn("資格情報が失効しています。再連携が必要です")
			return
		}
		s.logger.Error("定期同期に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}

	duration := time.Since(start)
	s.logger.Info("定期同期が完了しました",
		slog.Int("synced", result.Synced),
		slog.Int("skipped", result.Skipped),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
}
