package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/housemate/internal/model"
)

// PostgresPhotoRepo はPostgreSQLを使用した写真メタデータリポジトリ。
type PostgresPhotoRepo struct {
	db *sql.DB
}

// NewPostgresPhotoRepo はPostgresPhotoRepoを生成する。
func NewPostgresPhotoRepo(db *sql.DB) *PostgresPhotoRepo {
	return &PostgresPhotoRepo{db: db}
}

// List は写真メタデータを作成日時降順で返す。
// categoryが"all"または空の場合は全件を返す。
func (r *PostgresPhotoRepo) List(ctx context.Context, category string) ([]*model.Photo, error) {
	query := `SELECT id, filename, caption, uploaded_by, category, tags, likes, created_at
	          FROM photos`
	var args []interface{}

	if category != "" && category != "all" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("写真一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var photos []*model.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("写真一覧の走査に失敗しました: %w", err)
	}

	return photos, nil
}

// FindByID は指定IDの写真メタデータを取得する。見つからない場合はnilを返す。
func (r *PostgresPhotoRepo) FindByID(ctx context.Context, id string) (*model.Photo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, filename, caption, uploaded_by, category, tags, likes, created_at
		 FROM photos WHERE id = $1`, id)

	photo, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// Create は写真メタデータを作成する。
func (r *PostgresPhotoRepo) Create(ctx context.Context, photo *model.Photo) error {
	tags, err := marshalStringList(photo.Tags)
	if err != nil {
		return err
	}
	likes, err := marshalStringList(photo.Likes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO photos (id, filename, caption, uploaded_by, category, tags, likes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		photo.ID, photo.Filename, photo.Caption, photo.UploadedBy,
		photo.Category, tags, likes, photo.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("写真メタデータの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateLikes は写真のいいね一覧を更新する。
func (r *PostgresPhotoRepo) UpdateLikes(ctx context.Context, id string, likes []string) error {
	data, err := marshalStringList(likes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE photos SET likes = $2 WHERE id = $1`, id, data)
	if err != nil {
		return fmt.Errorf("いいねの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの写真メタデータを削除する。
func (r *PostgresPhotoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("写真メタデータの削除に失敗しました: %w", err)
	}
	return nil
}

// scanPhoto は1行分の写真メタデータを読み取る。
func scanPhoto(row rowScanner) (*model.Photo, error) {
	photo := &model.Photo{}
	var tags, likes []byte

	err := row.Scan(
		&photo.ID, &photo.Filename, &photo.Caption, &photo.UploadedBy,
		&photo.Category, &tags, &likes, &photo.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("写真メタデータの読み取りに失敗しました: %w", err)
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &photo.Tags); err != nil {
			return nil, fmt.Errorf("タグのデコードに失敗しました: %w", err)
		}
	}
	if len(likes) > 0 {
		if err := json.Unmarshal(likes, &photo.Likes); err != nil {
			return nil, fmt.Errorf("いいねのデコードに失敗しました: %w", err)
		}
	}

	return photo, nil
}

// marshalStringList は文字列スライスをJSONBに変換する。nilは空配列として保存する。
func marshalStringList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("リストのエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// compile-time interface check
var _ PhotoRepository = (*PostgresPhotoRepo)(nil)
