package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/housemate/internal/model"
)

// PostgresChoreRepo はPostgreSQLを使用した家事タスクリポジトリ。
type PostgresChoreRepo struct {
	db *sql.DB
}

// NewPostgresChoreRepo はPostgresChoreRepoを生成する。
func NewPostgresChoreRepo(db *sql.DB) *PostgresChoreRepo {
	return &PostgresChoreRepo{db: db}
}

// List は全タスクを期限昇順で返す。期限未設定のタスクは末尾に並ぶ。
func (r *PostgresChoreRepo) List(ctx context.Context) ([]*model.Chore, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, assigned_to, due_date, status,
		        created_by, created_at, completed_at, recurring, recurring_interval
		 FROM chores
		 ORDER BY due_date ASC NULLS LAST`,
	)
	if err != nil {
		return nil, fmt.Errorf("家事タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var chores []*model.Chore
	for rows.Next() {
		chore, err := scanChore(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, chore)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("家事タスク一覧の走査に失敗しました: %w", err)
	}

	return chores, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresChoreRepo) FindByID(ctx context.Context, id string) (*model.Chore, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, assigned_to, due_date, status,
		        created_by, created_at, completed_at, recurring, recurring_interval
		 FROM chores WHERE id = $1`, id)

	chore, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chore, nil
}

// Create はタスクを作成する。
func (r *PostgresChoreRepo) Create(ctx context.Context, chore *model.Chore) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chores (id, title, description, assigned_to, due_date, status,
		                     created_by, created_at, completed_at, recurring, recurring_interval)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		chore.ID, chore.Title, chore.Description, chore.AssignedTo,
		chore.DueDate, chore.Status, chore.CreatedBy, chore.CreatedAt,
		chore.CompletedAt, chore.Recurring, nullString(chore.RecurringInterval),
	)
	if err != nil {
		return fmt.Errorf("家事タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタスクを上書き更新する。
func (r *PostgresChoreRepo) Update(ctx context.Context, chore *model.Chore) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chores SET
		    title = $2, description = $3, assigned_to = $4, due_date = $5,
		    status = $6, completed_at = $7, recurring = $8, recurring_interval = $9
		 WHERE id = $1`,
		chore.ID, chore.Title, chore.Description, chore.AssignedTo,
		chore.DueDate, chore.Status, chore.CompletedAt, chore.Recurring,
		nullString(chore.RecurringInterval),
	)
	if err != nil {
		return fmt.Errorf("家事タスクの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresChoreRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("家事タスクの削除に失敗しました: %w", err)
	}
	return nil
}

// scanChore は1行分の家事タスクを読み取る。
func scanChore(row rowScanner) (*model.Chore, error) {
	chore := &model.Chore{}
	var dueDate, completedAt sql.NullTime
	var recurringInterval sql.NullString

	err := row.Scan(
		&chore.ID, &chore.Title, &chore.Description, &chore.AssignedTo,
		&dueDate, &chore.Status, &chore.CreatedBy, &chore.CreatedAt,
		&completedAt, &chore.Recurring, &recurringInterval,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("家事タスクの読み取りに失敗しました: %w", err)
	}

	if dueDate.Valid {
		t := dueDate.Time
		chore.DueDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		chore.CompletedAt = &t
	}
	chore.RecurringInterval = nullStringValue(recurringInterval)

	return chore, nil
}

// compile-time interface check
var _ ChoreRepository = (*PostgresChoreRepo)(nil)
