package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/problemlist/internal/model"
)

// MemoryListRepo はプロセス内メモリに問題リストを保持するリポジトリ。
// PostgresListRepoと同じ契約を満たし、ハンドラの結合テストで使用する。
type MemoryListRepo struct {
	mu    sync.RWMutex
	lists map[string]*model.ProblemList
	order []string // 作成順のリストID
}

// NewMemoryListRepo はMemoryListRepoを生成する。
func NewMemoryListRepo() *MemoryListRepo {
	return &MemoryListRepo{lists: make(map[string]*model.ProblemList)}
}

// ListByOwner はユーザーのリストを作成順に返す。
func (r *MemoryListRepo) ListByOwner(_ context.Context, userID string) ([]*model.ProblemList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lists := []*model.ProblemList{}
	for _, id := range r.order {
		if l := r.lists[id]; l.UserID == userID {
			lists = append(lists, cloneList(l))
		}
	}
	return lists, nil
}

// FindByID は指定IDのリストを取得する。見つからない場合はnilを返す。
func (r *MemoryListRepo) FindByID(_ context.Context, id string) (*model.ProblemList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lists[id]
	if !ok {
		return nil, nil
	}
	return cloneList(l), nil
}

// Create はリストを作成する。
func (r *MemoryListRepo) Create(_ context.Context, list *model.ProblemList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneList(list)
	stored.Items = []model.ListItem{}
	r.lists[list.ID] = stored
	r.order = append(r.order, list.ID)
	return nil
}

// WithLockedList は書き込みロックを保持したままfnを実行する。
// fnがエラーを返した場合はロック中の変更を巻き戻す。
func (r *MemoryListRepo) WithLockedList(_ context.Context, listID string, fn func(list *model.ProblemList, m ListMutator) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[listID]
	if !ok {
		return fn(nil, nil)
	}

	m := &memoryListMutator{working: cloneList(l)}
	view := cloneList(l)
	view.Items = nil
	if err := fn(view, m); err != nil {
		return err
	}

	if m.deleted {
		delete(r.lists, listID)
		for i, id := range r.order {
			if id == listID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		return nil
	}
	r.lists[listID] = m.working
	return nil
}

// memoryListMutator はコピー上で変更を行い、fn成功時にまとめて反映する。
type memoryListMutator struct {
	working *model.ProblemList
	deleted bool
}

func (m *memoryListMutator) Rename(_ context.Context, name string) error {
	m.working.Name = name
	return nil
}

func (m *memoryListMutator) Delete(_ context.Context) error {
	m.deleted = true
	m.working.Items = nil
	return nil
}

func (m *memoryListMutator) AddItem(_ context.Context, problemID string) (bool, error) {
	if m.indexOf(problemID) >= 0 {
		return false, nil
	}
	m.working.Items = append(m.working.Items, model.ListItem{
		ListID:    m.working.ID,
		ProblemID: problemID,
	})
	return true, nil
}

func (m *memoryListMutator) UpdateItemMemo(_ context.Context, problemID, memo string) (bool, error) {
	i := m.indexOf(problemID)
	if i < 0 {
		return false, nil
	}
	m.working.Items[i].Memo = memo
	return true, nil
}

func (m *memoryListMutator) DeleteItem(_ context.Context, problemID string) error {
	if i := m.indexOf(problemID); i >= 0 {
		m.working.Items = append(m.working.Items[:i], m.working.Items[i+1:]...)
	}
	return nil
}

func (m *memoryListMutator) indexOf(problemID string) int {
	for i, item := range m.working.Items {
		if item.ProblemID == problemID {
			return i
		}
	}
	return -1
}

// cloneList は呼び出し元と内部状態がスライスを共有しないようにコピーする。
func cloneList(l *model.ProblemList) *model.ProblemList {
	c := *l
	c.Items = make([]model.ListItem, len(l.Items))
	copy(c.Items, l.Items)
	return &c
}

// compile-time interface check
var (
	_ ProblemListRepository = (*MemoryListRepo)(nil)
	_ ListMutator           = (*memoryListMutator)(nil)
)
