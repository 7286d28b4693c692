package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/problemlist/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// EnsureExists は指定IDのユーザーが存在しなければ作成する。
// 同時ログインでも一意制約違反にならないようON CONFLICTで吸収する。
func (r *PostgresUserRepo) EnsureExists(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO internal_users (internal_user_id) VALUES ($1)
		 ON CONFLICT (internal_user_id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT internal_user_id, created_at FROM internal_users WHERE internal_user_id = $1`,
		id,
	).Scan(&user.ID, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
