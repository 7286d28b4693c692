package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/problemlist/internal/model"
)

// PostgresListRepo はPostgreSQLを使用した問題リストリポジトリ。
type PostgresListRepo struct {
	db *sql.DB
}

// NewPostgresListRepo はPostgresListRepoを生成する。
func NewPostgresListRepo(db *sql.DB) *PostgresListRepo {
	return &PostgresListRepo{db: db}
}

// ListByOwner はユーザーのリストをアイテム付きで作成順に返す。
func (r *PostgresListRepo) ListByOwner(ctx context.Context, userID string) ([]*model.ProblemList, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT internal_list_id, internal_user_id, internal_list_name, created_at
		 FROM internal_problem_lists
		 WHERE internal_user_id = $1
		 ORDER BY created_at, internal_list_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list problem lists: %w", err)
	}
	defer rows.Close()

	lists := []*model.ProblemList{}
	for rows.Next() {
		l := &model.ProblemList{Items: []model.ListItem{}}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan problem list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problem lists: %w", err)
	}

	if err := r.loadItems(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// FindByID は指定IDのリストをアイテム付きで取得する。
// UUIDとして解釈できないIDは存在しないものとして扱う。
func (r *PostgresListRepo) FindByID(ctx context.Context, id string) (*model.ProblemList, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	l := &model.ProblemList{Items: []model.ListItem{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT internal_list_id, internal_user_id, internal_list_name, created_at
		 FROM internal_problem_lists
		 WHERE internal_list_id = $1`,
		id,
	).Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find problem list: %w", err)
	}

	if err := r.loadItems(ctx, []*model.ProblemList{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// loadItems はlistsのアイテムを1クエリで読み込み、追加順に詰める。
func (r *PostgresListRepo) loadItems(ctx context.Context, lists []*model.ProblemList) error {
	if len(lists) == 0 {
		return nil
	}

	ids := make([]string, len(lists))
	byID := make(map[string]*model.ProblemList, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
		byID[l.ID] = l
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT internal_list_id, problem_id, memo
		 FROM internal_problem_list_items
		 WHERE internal_list_id = ANY($1::uuid[])
		 ORDER BY seq`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to list problem list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.ListItem
		if err := rows.Scan(&item.ListID, &item.ProblemID, &item.Memo); err != nil {
			return fmt.Errorf("failed to scan problem list item: %w", err)
		}
		if l, ok := byID[item.ListID]; ok {
			l.Items = append(l.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate problem list items: %w", err)
	}
	return nil
}

// Create はリストを作成する。
func (r *PostgresListRepo) Create(ctx context.Context, list *model.ProblemList) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO internal_problem_lists (internal_list_id, internal_user_id, internal_list_name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		list.ID, list.UserID, list.Name, list.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create problem list: %w", err)
	}
	return nil
}

// WithLockedList はSELECT ... FOR UPDATEでリスト行をロックしたトランザクション内でfnを実行する。
// 並行する削除と競合した側はリストなしとしてfnを呼ばれる。
func (r *PostgresListRepo) WithLockedList(ctx context.Context, listID string, fn func(list *model.ProblemList, m ListMutator) error) error {
	if _, err := uuid.Parse(listID); err != nil {
		return fn(nil, nil)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	l := &model.ProblemList{}
	err = tx.QueryRowContext(ctx,
		`SELECT internal_list_id, internal_user_id, internal_list_name, created_at
		 FROM internal_problem_lists
		 WHERE internal_list_id = $1
		 FOR UPDATE`,
		listID,
	).Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt)

	if err == sql.ErrNoRows {
		return fn(nil, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to lock problem list: %w", err)
	}

	if err := fn(l, &postgresListMutator{tx: tx, listID: listID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// postgresListMutator はロック済みトランザクション上で1リストを変更する。
type postgresListMutator struct {
	tx     *sql.Tx
	listID string
}

func (m *postgresListMutator) Rename(ctx context.Context, name string) error {
	_, err := m.tx.ExecContext(ctx,
		`UPDATE internal_problem_lists SET internal_list_name = $2 WHERE internal_list_id = $1`,
		m.listID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to rename problem list: %w", err)
	}
	return nil
}

// Delete はリストを削除する。アイテムはCASCADE削除される。
func (m *postgresListMutator) Delete(ctx context.Context) error {
	_, err := m.tx.ExecContext(ctx,
		`DELETE FROM internal_problem_lists WHERE internal_list_id = $1`,
		m.listID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete problem list: %w", err)
	}
	return nil
}

func (m *postgresListMutator) AddItem(ctx context.Context, problemID string) (bool, error) {
	result, err := m.tx.ExecContext(ctx,
		`INSERT INTO internal_problem_list_items (internal_list_id, problem_id, memo)
		 VALUES ($1, $2, '')
		 ON CONFLICT (internal_list_id, problem_id) DO NOTHING`,
		m.listID, problemID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add problem list item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (m *postgresListMutator) UpdateItemMemo(ctx context.Context, problemID, memo string) (bool, error) {
	result, err := m.tx.ExecContext(ctx,
		`UPDATE internal_problem_list_items SET memo = $3
		 WHERE internal_list_id = $1 AND problem_id = $2`,
		m.listID, problemID, memo,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update problem list item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (m *postgresListMutator) DeleteItem(ctx context.Context, problemID string) error {
	_, err := m.tx.ExecContext(ctx,
		`DELETE FROM internal_problem_list_items WHERE internal_list_id = $1 AND problem_id = $2`,
		m.listID, problemID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete problem list item: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ ProblemListRepository = (*PostgresListRepo)(nil)
	_ ListMutator           = (*postgresListMutator)(nil)
)
