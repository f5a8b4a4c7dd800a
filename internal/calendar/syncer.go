package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/model"
	"github.com/hitoshi/housemate/internal/repository"
)

// remoteClient はSyncerが必要とするプロバイダー操作。
type remoteClient interface {
	ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error)
	CreateEvent(ctx context.Context, accessToken string, draft *RemoteEventDraft) (*RemoteEvent, error)
}

// syncMetrics は同期処理の計測。
type syncMetrics interface {
	RecordSyncSuccess(synced, skipped int)
	RecordSyncFailure()
	RecordPushSuccess()
	RecordPushFailure()
}

// SyncResult は調停パス1回分の結果。
type SyncResult struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

// PushResult はプッシュ1回分の結果。
type PushResult struct {
	RemoteID string `json:"remote_id"`
	LocalID  string `json:"local_id"`
}

// Syncer はリモートカレンダーとローカルストアの同期を統括する。
//
// 調停パスは排他的に実行される。同時に複数のパスが走ると
// 全置換が交錯して二重挿入や欠落が起きるため、mutexで直列化する。
type Syncer struct {
	session    *CredentialSession
	client     remoteClient
	translator *Translator
	repo       repository.CalendarEventRepository
	metrics    syncMetrics
	logger     *slog.Logger
	windowDays int

	reconcileMu sync.Mutex
}

// NewSyncer はSyncerを生成する。windowDaysは調停対象期間（現在から何日先まで）。
func NewSyncer(
	session *CredentialSession,
	client remoteClient,
	translator *Translator,
	repo repository.CalendarEventRepository,
	metrics syncMetrics,
	logger *slog.Logger,
	windowDays int,
) *Syncer {
	return &Syncer{
		session:    session,
		client:     client,
		translator: translator,
		repo:       repo,
		metrics:    metrics,
		logger:     logger,
		windowDays: windowDays,
	}
}

// PushEvent はローカルの下書きをプロバイダーに作成し、成功後に
// ローカルストアへも保存する。ローカルレコードのIDは新規生成され、
// プロバイダー側IDはRemoteIDとして保持する。
//
// プロバイダーへの作成が失敗した場合、ローカルストアには書き込まない。
// 逆方向（プロバイダー成功後のローカル保存失敗）は次回の調停パスでは
// 回復しない。リモート作成イベントはorigin=localとして保存されるため、
// 呼び出し元にエラーを返して通知する。
func (s *Syncer) PushEvent(ctx context.Context, draft *model.EventDraft) (*PushResult, error) {
	token, err := s.session.AccessCredential()
	if err != nil {
		return nil, err
	}

	remoteDraft, err := s.translator.ToRemoteDraft(draft)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateEvent(ctx, token, remoteDraft)
	if err != nil {
		s.metrics.RecordPushFailure()
		s.logger.Error("イベントのプッシュに失敗しました", "error", err)
		return nil, err
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
		RemoteID:    created.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		s.metrics.RecordPushFailure()
		s.logger.Error("プッシュ済みイベントのローカル保存に失敗しました",
			"remote_id", created.ID, "error", err)
		return nil, fmt.Errorf("プッシュ済みイベントの保存に失敗しました: %w", err)
	}

	s.metrics.RecordPushSuccess()
	s.logger.Info("イベントをプッシュしました",
		"local_id", event.ID, "remote_id", created.ID)

	return &PushResult{RemoteID: created.ID, LocalID: event.ID}, nil
}

// PullAndReconcile はプロバイダーから現在〜windowDays日先のイベントを取得し、
// origin=remote_syncのローカルレコードを取得結果で全置換する。
// origin=localのレコードには一切触れない。
//
// 変換に失敗したイベントはスキップ数に計上し、残りの同期は継続する。
// 取得自体が失敗した場合はローカルストアを変更せずエラーを返す。
// 同一のリモート状態に対して何度実行しても結果は同じ（冪等）。
func (s *Syncer) PullAndReconcile(ctx context.Context) (*SyncResult, error) {
	token, err := s.session.AccessCredential()
	if err != nil {
		return nil, err
	}

	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	now := time.Now().UTC()
	windowEnd := now.AddDate(0, 0, s.windowDays)

	remotes, err := s.client.ListEvents(ctx, token, now, windowEnd)
	if err != nil {
		s.metrics.RecordSyncFailure()
		s.logger.Error("リモートイベントの取得に失敗しました", "error", err)
		return nil, err
	}

	events := make([]*model.CalendarEvent, 0, len(remotes))
	skipped := 0
	for i := range remotes {
		event, err := s.translator.ToLocal(&remotes[i])
		if err != nil {
			skipped++
			s.logger.Warn("リモートイベントをスキップしました",
				"remote_id", remotes[i].ID, "error", err)
			continue
		}
		events = append(events, event)
	}

	if err := s.repo.ReplaceRemoteEvents(ctx, events); err != nil {
		s.metrics.RecordSyncFailure()
		s.logger.Error("同期レコードの置換に失敗しました", "error", err)
		return nil, fmt.Errorf("同期レコードの置換に失敗しました: %w", err)
	}

	s.metrics.RecordSyncSuccess(len(events), skipped)
	s.logger.Info("カレンダーを同期しました",
		"synced", len(events), "skipped", skipped,
		"window_days", s.windowDays)

	return &SyncResult{Synced: len(events), Skipped: skipped}, nil
}
