package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/housemate/internal/model"
)

// PostgresCalendarEventRepo はPostgreSQLを使用したカレンダーイベントリポジトリ。
type PostgresCalendarEventRepo struct {
	db *sql.DB
}

// NewPostgresCalendarEventRepo はPostgresCalendarEventRepoを生成する。
func NewPostgresCalendarEventRepo(db *sql.DB) *PostgresCalendarEventRepo {
	return &PostgresCalendarEventRepo{db: db}
}

const calendarEventColumns = `id, title, description, start_at, end_at, origin,
	       created_by, attendees, location, remote_id, created_at`

// Insert はイベントを作成する。
func (r *PostgresCalendarEventRepo) Insert(ctx context.Context, event *model.CalendarEvent) error {
	attendees, err := json.Marshal(event.Attendees)
	if err != nil {
		return fmt.Errorf("参加者一覧のエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, title, description, start_at, end_at, origin,
		                              created_by, attendees, location, remote_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.Title, event.Description, event.Start, event.End,
		event.Origin, event.CreatedBy, attendees, event.Location,
		nullString(event.RemoteID), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("カレンダーイベントの作成に失敗しました: %w", err)
	}
	return nil
}

// ReplaceRemoteEvents はorigin=remote_syncの全レコードを削除し、
// 渡されたイベント群を単一トランザクションで挿入する。
// origin=localのレコードには一切触れない。
func (r *PostgresCalendarEventRepo) ReplaceRemoteEvents(ctx context.Context, events []*model.CalendarEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM calendar_events WHERE origin = $1`,
		model.EventOriginRemoteSync,
	); err != nil {
		return fmt.Errorf("同期済みイベントの削除に失敗しました: %w", err)
	}

	for _, event := range events {
		attendees, err := json.Marshal(event.Attendees)
		if err != nil {
			return fmt.Errorf("参加者一覧のエンコードに失敗しました: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_events (id, title, description, start_at, end_at, origin,
			                              created_by, attendees, location, remote_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			event.ID, event.Title, event.Description, event.Start, event.End,
			event.Origin, event.CreatedBy, attendees, event.Location,
			nullString(event.RemoteID), event.CreatedAt,
		); err != nil {
			return fmt.Errorf("同期イベントの挿入に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// ListByRange は[start, end)のイベントをstart_at昇順で返す。
// startとendが共にゼロ値の場合は全件を返す。
func (r *PostgresCalendarEventRepo) ListByRange(ctx context.Context, start, end time.Time) ([]*model.CalendarEvent, error) {
	query := `SELECT ` + calendarEventColumns + ` FROM calendar_events`
	var args []interface{}

	if !start.IsZero() || !end.IsZero() {
		query += ` WHERE start_at >= $1 AND start_at < $2`
		args = append(args, start, end)
	}
	query += ` ORDER BY start_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("カレンダーイベントの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var events []*model.CalendarEvent
	for rows.Next() {
		event, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カレンダーイベントの走査に失敗しました: %w", err)
	}

	return events, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresCalendarEventRepo) FindByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+calendarEventColumns+` FROM calendar_events WHERE id = $1`, id)

	event, err := scanCalendarEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Update はイベントを上書き更新する。
func (r *PostgresCalendarEventRepo) Update(ctx context.Context, event *model.CalendarEvent) error {
	attendees, err := json.Marshal(event.Attendees)
	if err != nil {
		return fmt.Errorf("参加者一覧のエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE calendar_events SET
		    title = $2, description = $3, start_at = $4, end_at = $5,
		    attendees = $6, location = $7
		 WHERE id = $1`,
		event.ID, event.Title, event.Description, event.Start, event.End,
		attendees, event.Location,
	)
	if err != nil {
		return fmt.Errorf("カレンダーイベントの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのイベントを削除する。
func (r *PostgresCalendarEventRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("カレンダーイベントの削除に失敗しました: %w", err)
	}
	return nil
}

// CountByOrigin は指定originのイベント数を返す。
func (r *PostgresCalendarEventRepo) CountByOrigin(ctx context.Context, origin model.EventOrigin) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calendar_events WHERE origin = $1`, origin,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("イベント数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通走査インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCalendarEvent は1行分のカレンダーイベントを読み取る。
func scanCalendarEvent(row rowScanner) (*model.CalendarEvent, error) {
	event := &model.CalendarEvent{}
	var end sql.NullTime
	var attendees []byte
	var remoteID sql.NullString

	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Start, &end,
		&event.Origin, &event.CreatedBy, &attendees, &event.Location,
		&remoteID, &event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("カレンダーイベントの読み取りに失敗しました: %w", err)
	}

	if end.Valid {
		t := end.Time
		event.End = &t
	}
	event.RemoteID = nullStringValue(remoteID)

	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &event.Attendees); err != nil {
			return nil, fmt.Errorf("参加者一覧のデコードに失敗しました: %w", err)
		}
	}

	return event, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ CalendarEventRepository = (*PostgresCalendarEventRepo)(nil)
