// Package model はドメインモデルを定義する。
package model

import "time"

// EventOrigin はカレンダーイベントの出自を表す。
// マージ処理の扱いを決定するタグであり、remote_syncのレコードだけが
// 同期のたびに全置換される。
type EventOrigin string

const (
	// EventOriginLocal はこのシステムで直接作成されたイベント。
	EventOriginLocal EventOrigin = "local"
	// EventOriginRemoteSync は外部カレンダープロバイダーから取り込まれたイベント。
	EventOriginRemoteSync EventOrigin = "remote_sync"
)

// RemoteCreatedBy は外部プロバイダー由来イベントのcreated_by固定値。
const RemoteCreatedBy = "Google Calendar"

// CalendarEvent はローカルカレンダーストアの正準イベントレコードを表す。
// IDはローカル生成のUUIDであり、プロバイダーのIDはRemoteIDにのみ保持する
// （プロバイダーIDの形式は信頼できず、ローカルIDは再生成に対して安定である必要がある）。
type CalendarEvent struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         *time.Time // nilの場合は時点マーカーとして扱う
	Origin      EventOrigin
	CreatedBy   string
	Attendees   []string // メールアドレスの列。意味上は順不同だが表示順を保持する
	Location    string
	RemoteID    string // プロバイダー側ID（トレーサビリティ用、ローカル作成のみの場合は空）
	CreatedAt   time.Time
}

// EventDraft はイベント作成リクエストから構築される未保存のイベント下書き。
// プッシュ（プロバイダーへの作成）とローカル作成の両方で使用する。
type EventDraft struct {
	Title       string
	Description string
	Start       time.Time
	End         *time.Time
	CreatedBy   string
	Attendees   []string
	Location    string
}
