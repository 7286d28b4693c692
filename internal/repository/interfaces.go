// Package repository はデータ永続化のインターフェースを定義する。
// PostgreSQL実装とメモリ実装は同じ契約を満たす。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/problemlist/internal/model"
)

// UserRepository は内部ユーザーの永続化インターフェース。
type UserRepository interface {
	// EnsureExists は指定IDのユーザーが存在しなければ作成する。冪等。
	EnsureExists(ctx context.Context, id string) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionRepository はセッショントークンの永続化インターフェース。
// 並行に呼び出されても安全でなければならない。
type SessionRepository interface {
	// Create はセッションを登録する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定トークンのセッションを取得する。
	// 存在しない場合、期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定トークンのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired はnow時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProblemListRepository は問題リストとアイテムの永続化インターフェース。
type ProblemListRepository interface {
	// ListByOwner はユーザーのリストをアイテム付きで作成順に返す。
	// 該当がない場合は空スライスを返す。
	ListByOwner(ctx context.Context, userID string) ([]*model.ProblemList, error)

	// FindByID は指定IDのリストをアイテム付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ProblemList, error)

	// Create はアイテムを持たないリストを作成する。
	Create(ctx context.Context, list *model.ProblemList) error

	// WithLockedList はリストを排他ロックした状態でfnを実行する。
	// リストが存在しない場合はlistとmにnilを渡す。
	// fnがエラーを返した場合、mによる変更は全て破棄される。
	// ロック中に渡されるlistのItemsは読み込まれない。
	WithLockedList(ctx context.Context, listID string, fn func(list *model.ProblemList, m ListMutator) error) error
}

// ListMutator はWithLockedListでロックされた1リストに対する変更操作。
// fnの外で使用してはならない。
type ListMutator interface {
	// Rename はリスト名を変更する。
	Rename(ctx context.Context, name string) error
	// Delete はリストとそのアイテムを削除する。
	Delete(ctx context.Context) error
	// AddItem は空メモのアイテムを末尾に追加する。
	// 既に存在する場合は何もせずfalseを返す。
	AddItem(ctx context.Context, problemID string) (inserted bool, err error)
	// UpdateItemMemo はアイテムのメモを置き換える。アイテムがなければfalseを返す。
	UpdateItemMemo(ctx context.Context, problemID, memo string) (found bool, err error)
	// DeleteItem はアイテムを削除する。存在しなくてもエラーにしない。
	DeleteItem(ctx context.Context, problemID string) error
}
