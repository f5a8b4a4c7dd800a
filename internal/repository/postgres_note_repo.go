package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/housemate/internal/model"
)

// PostgresNoteRepo はPostgreSQLを使用した共有メモリポジトリ。
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo はPostgresNoteRepoを生成する。
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

// List は全メモをピン留め優先・作成日時降順で返す。
func (r *PostgresNoteRepo) List(ctx context.Context) ([]*model.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author, note_type, pinned, reactions, created_at
		 FROM notes
		 ORDER BY pinned DESC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("メモ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メモ一覧の走査に失敗しました: %w", err)
	}

	return notes, nil
}

// FindByID は指定IDのメモを取得する。見つからない場合はnilを返す。
func (r *PostgresNoteRepo) FindByID(ctx context.Context, id string) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, author, note_type, pinned, reactions, created_at
		 FROM notes WHERE id = $1`, id)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Create はメモを作成する。
func (r *PostgresNoteRepo) Create(ctx context.Context, note *model.Note) error {
	reactions, err := marshalReactions(note.Reactions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, author, note_type, pinned, reactions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		note.ID, note.Title, note.Content, note.Author, note.Type,
		note.Pinned, reactions, note.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("メモの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はメモを上書き更新する。
func (r *PostgresNoteRepo) Update(ctx context.Context, note *model.Note) error {
	reactions, err := marshalReactions(note.Reactions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notes SET title = $2, content = $3, note_type = $4, pinned = $5, reactions = $6
		 WHERE id = $1`,
		note.ID, note.Title, note.Content, note.Type, note.Pinned, reactions,
	)
	if err != nil {
		return fmt.Errorf("メモの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのメモを削除する。
func (r *PostgresNoteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("メモの削除に失敗しました: %w", err)
	}
	return nil
}

// scanNote は1行分のメモを読み取る。
func scanNote(row rowScanner) (*model.Note, error) {
	note := &model.Note{}
	var reactions []byte

	err := row.Scan(
		&note.ID, &note.Title, &note.Content, &note.Author,
		&note.Type, &note.Pinned, &reactions, &note.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("メモの読み取りに失敗しました: %w", err)
	}

	if len(reactions) > 0 {
		if err := json.Unmarshal(reactions, &note.Reactions); err != nil {
			return nil, fmt.Errorf("リアクションのデコードに失敗しました: %w", err)
		}
	}

	return note, nil
}

// marshalReactions はリアクションマップをJSONBに変換する。nilは空オブジェクトとして保存する。
func marshalReactions(reactions map[string][]string) ([]byte, error) {
	if reactions == nil {
		reactions = map[string][]string{}
	}
	data, err := json.Marshal(reactions)
	if err != nil {
		return nil, fmt.Errorf("リアクションのエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)
