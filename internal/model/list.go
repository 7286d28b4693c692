package model

import "time"

// ProblemList はユーザーが所有する問題リストを表す。
// 所有者（UserID）とIDは作成時に確定し、以後変更されない。
type ProblemList struct {
	ID        string
	UserID    string
	Name      string
	Items     []ListItem // 追加順
	CreatedAt time.Time
}

// ListItem は問題リスト内の1問題とメモを表す。
// (ListID, ProblemID) はリスト内で一意。
type ListItem struct {
	ListID    string
	ProblemID string
	Memo      string
}

// AddItemOutcome はアイテム追加の結果種別を表す。
// APIレスポンスではどちらも成功として扱う。
type AddItemOutcome int

const (
	// AddItemInserted は新規にアイテムが追加されたことを示す。
	AddItemInserted AddItemOutcome = iota + 1
	// AddItemAlreadyPresent は同じ問題が既にリストに存在したことを示す。
	AddItemAlreadyPresent
)

// String はメトリクスやログ向けの名前を返す。
func (o AddItemOutcome) String() string {
	switch o {
	case AddItemInserted:
		return "inserted"
	case AddItemAlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}
