package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/housemate/internal/model"
)

// PostgresExpenseRepo はPostgreSQLを使用した共同支出リポジトリ。
type PostgresExpenseRepo struct {
	db *sql.DB
}

// NewPostgresExpenseRepo はPostgresExpenseRepoを生成する。
func NewPostgresExpenseRepo(db *sql.DB) *PostgresExpenseRepo {
	return &PostgresExpenseRepo{db: db}
}

// List は全支出を日付降順で返す。
func (r *PostgresExpenseRepo) List(ctx context.Context) ([]*model.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount, category, paid_by, split_between,
		        expense_date, description, settled
		 FROM expenses
		 ORDER BY expense_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("支出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		expense := &model.Expense{}
		var splitBetween []byte

		if err := rows.Scan(
			&expense.ID, &expense.Title, &expense.Amount, &expense.Category,
			&expense.PaidBy, &splitBetween, &expense.Date,
			&expense.Description, &expense.Settled,
		); err != nil {
			return nil, fmt.Errorf("支出の読み取りに失敗しました: %w", err)
		}

		if len(splitBetween) > 0 {
			if err := json.Unmarshal(splitBetween, &expense.SplitBetween); err != nil {
				return nil, fmt.Errorf("割り勘対象のデコードに失敗しました: %w", err)
			}
		}

		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("支出一覧の走査に失敗しました: %w", err)
	}

	return expenses, nil
}

// Create は支出を作成する。
func (r *PostgresExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	splitBetween, err := marshalStringList(expense.SplitBetween)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, title, amount, category, paid_by, split_between,
		                       expense_date, description, settled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		expense.ID, expense.Title, expense.Amount, expense.Category,
		expense.PaidBy, splitBetween, expense.Date,
		expense.Description, expense.Settled,
	)
	if err != nil {
		return fmt.Errorf("支出の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)

// PostgresCheckinRepo はPostgreSQLを使用した週次チェックインリポジトリ。
type PostgresCheckinRepo struct {
	db *sql.DB
}

// NewPostgresCheckinRepo はPostgresCheckinRepoを生成する。
func NewPostgresCheckinRepo(db *sql.DB) *PostgresCheckinRepo {
	return &PostgresCheckinRepo{db: db}
}

// List は全チェックインを対象週降順で返す。
func (r *PostgresCheckinRepo) List(ctx context.Context) ([]*model.Checkin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, week_of, author, mood, stress_level, satisfaction,
		        highlights, concerns, suggestions, created_at
		 FROM checkins
		 ORDER BY week_of DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("チェックイン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var checkins []*model.Checkin
	for rows.Next() {
		checkin := &model.Checkin{}
		if err := rows.Scan(
			&checkin.ID, &checkin.WeekOf, &checkin.Author, &checkin.Mood,
			&checkin.StressLevel, &checkin.Satisfaction, &checkin.Highlights,
			&checkin.Concerns, &checkin.Suggestions, &checkin.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("チェックインの読み取りに失敗しました: %w", err)
		}
		checkins = append(checkins, checkin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チェックイン一覧の走査に失敗しました: %w", err)
	}

	return checkins, nil
}

// Create はチェックインを作成する。
func (r *PostgresCheckinRepo) Create(ctx context.Context, checkin *model.Checkin) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO checkins (id, week_of, author, mood, stress_level, satisfaction,
		                       highlights, concerns, suggestions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		checkin.ID, checkin.WeekOf, checkin.Author, checkin.Mood,
		checkin.StressLevel, checkin.Satisfaction, checkin.Highlights,
		checkin.Concerns, checkin.Suggestions, checkin.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("チェックインの作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CheckinRepository = (*PostgresCheckinRepo)(nil)

// PostgresHouseRuleRepo はPostgreSQLを使用したハウスルールリポジトリ。
// エクスポート用の読み取りのみ提供する。
type PostgresHouseRuleRepo struct {
	db *sql.DB
}

// NewPostgresHouseRuleRepo はPostgresHouseRuleRepoを生成する。
func NewPostgresHouseRuleRepo(db *sql.DB) *PostgresHouseRuleRepo {
	return &PostgresHouseRuleRepo{db: db}
}

// List は全ハウスルールを作成日時昇順で返す。
func (r *PostgresHouseRuleRepo) List(ctx context.Context) ([]*model.HouseRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, title, description, created_by, created_at, active
		 FROM house_rules
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ハウスルール一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var rules []*model.HouseRule
	for rows.Next() {
		rule := &model.HouseRule{}
		if err := rows.Scan(
			&rule.ID, &rule.Category, &rule.Title, &rule.Description,
			&rule.CreatedBy, &rule.CreatedAt, &rule.Active,
		); err != nil {
			return nil, fmt.Errorf("ハウスルールの読み取りに失敗しました: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ハウスルール一覧の走査に失敗しました: %w", err)
	}

	return rules, nil
}

// compile-time interface check
var _ HouseRuleRepository = (*PostgresHouseRuleRepo)(nil)
