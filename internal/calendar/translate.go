package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/housemate/internal/model"
)

// 時刻未指定のイベント（終日イベント）の日付形式。
const allDayDateLayout = "2006-01-02"

// textSanitizer は外部由来テキストの無害化処理。
type textSanitizer interface {
	SanitizeText(text string) string
}

// Translator はワイヤー形式のイベントとローカルレコードを相互に変換する。
// 方向ごとに非対称で、リモート→ローカルは欠損に寛容（タイトル補完・任意の終了時刻）、
// ローカル→リモートは厳格（開始・終了の両方を必須とする）。
type Translator struct {
	sanitizer textSanitizer
	timezone  string
}

// NewTranslator はTranslatorを生成する。timezoneはIANA名（例: America/New_York）。
func NewTranslator(sanitizer textSanitizer, timezone string) *Translator {
	return &Translator{sanitizer: sanitizer, timezone: timezone}
}

// ToLocal はリモートイベント1件をローカルレコードに変換する。
// 開始時刻が欠損または解析不能な場合はErrTranslationを返し、
// 呼び出し元はそのイベントのみスキップする。
// IDは毎回新規生成される。同期はリモートレコードの全置換であり、
// 以前のローカルIDとの対応を維持する必要はない。
func (t *Translator) ToLocal(remote *RemoteEvent) (*model.CalendarEvent, error) {
	start, err := parseRemoteTime(remote.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: 開始時刻: %v", ErrTranslation, err)
	}

	title := remote.Summary
	if title == "" {
		title = "No Title"
	}

	event := &model.CalendarEvent{
		ID:          uuid.NewString(),
		Title:       t.sanitizer.SanitizeText(title),
		Description: t.sanitizer.SanitizeText(remote.Description),
		Start:       start,
		Origin:      model.EventOriginRemoteSync,
		CreatedBy:   model.RemoteCreatedBy,
		Location:    t.sanitizer.SanitizeText(remote.Location),
		RemoteID:    remote.ID,
		CreatedAt:   time.Now().UTC(),
	}

	// 終了時刻は任意。解析できない場合も開始時刻だけのイベントとして受け入れる。
	if end, err := parseRemoteTime(remote.End); err == nil {
		event.End = &end
	}

	for _, attendee := range remote.Attendees {
		if attendee.Email != "" {
			event.Attendees = append(event.Attendees, attendee.Email)
		}
	}

	return event, nil
}

// ToRemoteDraft はローカルの下書きをプロバイダー送信用ペイロードに変換する。
// プロバイダーは開始・終了の両方を要求するため、どちらかが欠けている場合は
// ネットワークに触れる前にErrValidationを返す。
func (t *Translator) ToRemoteDraft(draft *model.EventDraft) (*RemoteEventDraft, error) {
	if draft.Title == "" {
		return nil, fmt.Errorf("%w: タイトルは必須です", ErrValidation)
	}
	if draft.Start.IsZero() {
		return nil, fmt.Errorf("%w: 開始時刻は必須です", ErrValidation)
	}
	if draft.End == nil {
		return nil, fmt.Errorf("%w: 終了時刻は必須です", ErrValidation)
	}
	if !draft.End.After(draft.Start) {
		return nil, fmt.Errorf("%w: 終了時刻は開始時刻より後である必要があります", ErrValidation)
	}

	remote := &RemoteEventDraft{
		Summary:     draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Start: &RemoteEventTime{
			DateTime: draft.Start.Format(time.RFC3339),
			TimeZone: t.timezone,
		},
		End: &RemoteEventTime{
			DateTime: draft.End.Format(time.RFC3339),
			TimeZone: t.timezone,
		},
	}

	for _, email := range draft.Attendees {
		if email != "" {
			remote.Attendees = append(remote.Attendees, RemoteAttendee{Email: email})
		}
	}

	return remote, nil
}

// parseRemoteTime はワイヤー形式の時刻を解析する。
// dateTime（時刻付き）をdate（終日）より優先する。
func parseRemoteTime(rt *RemoteEventTime) (time.Time, error) {
	if rt == nil {
		return time.Time{}, fmt.Errorf("時刻が設定されていません")
	}
	if rt.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, rt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("dateTimeの解析に失敗しました: %w", err)
		}
		return parsed, nil
	}
	if rt.Date != "" {
		parsed, err := time.Parse(allDayDateLayout, rt.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("dateの解析に失敗しました: %w", err)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("dateTimeとdateの両方が空です")
}
