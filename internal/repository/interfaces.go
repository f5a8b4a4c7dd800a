// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/housemate/internal/model"
)

// CalendarEventRepository はカレンダーイベントの永続化インターフェース。
// 同期オーケストレーターが必要とするのはInsert、ReplaceRemoteEvents、
// ListByRangeの3操作のみで、残りはCRUDハンドラー用。
type CalendarEventRepository interface {
	// Insert はイベントを作成する。
	Insert(ctx context.Context, event *model.CalendarEvent) error

	// ReplaceRemoteEvents はorigin=remote_syncの全レコードを削除し、
	// 渡されたイベント群を挿入する。削除と挿入は単一トランザクションで
	// 実行され、途中状態が他の読み手から観測されることはない。
	// origin=localのレコードには一切触れない。
	ReplaceRemoteEvents(ctx context.Context, events []*model.CalendarEvent) error

	// ListByRange は[start, end)のイベントをstart_at昇順で返す。
	// startとendが共にゼロ値の場合は全件を返す。
	ListByRange(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CalendarEvent, error)

	// Update はイベントを上書き更新する。
	Update(ctx context.Context, event *model.CalendarEvent) error

	// Delete は指定IDのイベントを削除する。
	Delete(ctx context.Context, id string) error

	// CountByOrigin は指定originのイベント数を返す。
	CountByOrigin(ctx context.Context, origin model.EventOrigin) (int, error)
}

// NoteRepository は共有メモの永続化インターフェース。
type NoteRepository interface {
	// List は全メモをピン留め優先・作成日時降順で返す。
	List(ctx context.Context) ([]*model.Note, error)
	// FindByID は指定IDのメモを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Note, error)
	// Create はメモを作成する。
	Create(ctx context.Context, note *model.Note) error
	// Update はメモを上書き更新する。
	Update(ctx context.Context, note *model.Note) error
	// Delete は指定IDのメモを削除する。
	Delete(ctx context.Context, id string) error
}

// PhotoRepository は写真メタデータの永続化インターフェース。
type PhotoRepository interface {
	// List は写真メタデータを作成日時降順で返す。
	// categoryが"all"または空の場合は全件を返す。
	List(ctx context.Context, category string) ([]*model.Photo, error)
	// FindByID は指定IDの写真メタデータを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Photo, error)
	// Create は写真メタデータを作成する。
	Create(ctx context.Context, photo *model.Photo) error
	// UpdateLikes は写真のいいね一覧を更新する。
	UpdateLikes(ctx context.Context, id string, likes []string) error
	// Delete は指定IDの写真メタデータを削除する。
	Delete(ctx context.Context, id string) error
}

// ChoreRepository は家事タスクの永続化インターフェース。
type ChoreRepository interface {
	// List は全タスクを期限昇順で返す。
	List(ctx context.Context) ([]*model.Chore, error)
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Chore, error)
	// Create はタスクを作成する。
	Create(ctx context.Context, chore *model.Chore) error
	// Update はタスクを上書き更新する。
	Update(ctx context.Context, chore *model.Chore) error
	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error
}

// ExpenseRepository は共同支出の永続化インターフェース。
type ExpenseRepository interface {
	// List は全支出を日付降順で返す。
	List(ctx context.Context) ([]*model.Expense, error)
	// Create は支出を作成する。
	Create(ctx context.Context, expense *model.Expense) error
}

// CheckinRepository は週次チェックインの永続化インターフェース。
type CheckinRepository interface {
	// List は全チェックインを対象週降順で返す。
	List(ctx context.Context) ([]*model.Checkin, error)
	// Create はチェックインを作成する。
	Create(ctx context.Context, checkin *model.Checkin) error
}

// HouseRuleRepository はハウスルールの永続化インターフェース。
// エクスポート用の読み取りのみ提供する。
type HouseRuleRepository interface {
	// List は全ハウスルールを作成日時昇順で返す。
	List(ctx context.Context) ([]*model.HouseRule, error)
}
