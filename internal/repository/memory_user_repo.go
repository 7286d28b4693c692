package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/problemlist/internal/model"
)

// MemoryUserRepo はテストやDBなしのローカル実行向けのユーザーリポジトリ。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]model.User)}
}

// EnsureExists は指定IDのユーザーが存在しなければ作成する。
func (r *MemoryUserRepo) EnsureExists(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		r.users[id] = model.User{ID: id, CreatedAt: time.Now()}
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)
