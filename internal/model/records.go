// Package model はドメインモデルを定義する。
package model

import "time"

// ChoreStatus は家事タスクの状態を表す。
type ChoreStatus string

const (
	// ChoreStatusPending は未着手の家事タスク。
	ChoreStatusPending ChoreStatus = "pending"
	// ChoreStatusInProgress は進行中の家事タスク。
	ChoreStatusInProgress ChoreStatus = "in_progress"
	// ChoreStatusCompleted は完了した家事タスク。
	ChoreStatusCompleted ChoreStatus = "completed"
)

// Chore は家事タスクを表す。
type Chore struct {
	ID                string
	Title             string
	Description       string
	AssignedTo        string
	DueDate           *time.Time
	Status            ChoreStatus
	CreatedBy         string
	CreatedAt         time.Time
	CompletedAt       *time.Time
	Recurring         bool
	RecurringInterval string // daily, weekly, monthly 等。Recurringがfalseの場合は空
}

// Photo は写真レコードのメタデータを表す。
// ファイル本体の保存と配信はこのシステムの対象外であり、
// ファイル名とキャプション等のメタデータのみを管理する。
type Photo struct {
	ID         string
	Filename   string
	Caption    string
	UploadedBy string
	Category   string
	Tags       []string
	Likes      []string // いいねしたメンバー名の列
	Timestamp  time.Time
}

// ToggleLike は指定メンバーのいいねをトグルする。
func (p *Photo) ToggleLike(member string) {
	for i, m := range p.Likes {
		if m == member {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return
		}
	}
	p.Likes = append(p.Likes, member)
}

// Expense は共同支出を表す。
type Expense struct {
	ID           string
	Title        string
	Amount       float64
	Category     string
	PaidBy       string
	SplitBetween []string
	Date         time.Time
	Description  string
	Settled      bool
}

// Checkin は週次チェックインを表す。
// Mood、StressLevel、Satisfactionは1〜10のスケール。
type Checkin struct {
	ID           string
	WeekOf       string // 対象週の開始日（YYYY-MM-DD）
	Author       string
	Mood         int
	StressLevel  int
	Satisfaction int
	Highlights   string
	Concerns     string
	Suggestions  string
	Timestamp    time.Time
}

// HouseRule はハウスルールを表す。
// APIエンドポイントは持たず、保存とエクスポートのみに使用される。
type HouseRule struct {
	ID          string
	Category    string
	Title       string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	Active      bool
}
