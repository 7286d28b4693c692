package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/problemlist/internal/model"
)

// listRepoFactory はテストごとに空のリポジトリを返す。
// ensureUser はリスト作成前に所有ユーザーを用意する（FK制約のある実装向け）。
type listRepoFactory func(t *testing.T) (repo ProblemListRepository, ensureUser func(id string))

// runListRepoContract はProblemListRepositoryの実装が満たすべき振る舞いを検証する。
func runListRepoContract(t *testing.T, factory listRepoFactory) {
	ctx := context.Background()

	newList := func(t *testing.T, repo ProblemListRepository, owner, name string) *model.ProblemList {
		t.Helper()
		l := &model.ProblemList{
			ID:        uuid.New().String(),
			UserID:    owner,
			Name:      name,
			CreatedAt: time.Now(),
		}
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return l
	}

	t.Run("作成したリストはアイテム空で取得できる", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		created := newList(t, repo, "1", "a")

		got, err := repo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got == nil {
			t.Fatal("expected list, got nil")
		}
		if got.Name != "a" || got.UserID != "1" {
			t.Errorf("got name=%q owner=%q, want a/1", got.Name, got.UserID)
		}
		if got.Items == nil || len(got.Items) != 0 {
			t.Errorf("Items = %#v, want empty non-nil slice", got.Items)
		}
	})

	t.Run("存在しないIDはnilを返す", func(t *testing.T) {
		repo, _ := factory(t)
		for _, id := range []string{uuid.New().String(), "not-a-uuid", ""} {
			got, err := repo.FindByID(ctx, id)
			if err != nil {
				t.Fatalf("FindByID(%q): %v", id, err)
			}
			if got != nil {
				t.Errorf("FindByID(%q) = %+v, want nil", id, got)
			}
		}
	})

	t.Run("ListByOwnerは所有者のリストのみを作成順で返す", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		ensureUser("2")

		first := newList(t, repo, "1", "first")
		newList(t, repo, "2", "other")
		time.Sleep(2 * time.Millisecond)
		second := newList(t, repo, "1", "second")

		lists, err := repo.ListByOwner(ctx, "1")
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(lists) != 2 {
			t.Fatalf("len = %d, want 2", len(lists))
		}
		if lists[0].ID != first.ID || lists[1].ID != second.ID {
			t.Errorf("order = [%s %s], want [%s %s]", lists[0].ID, lists[1].ID, first.ID, second.ID)
		}

		empty, err := repo.ListByOwner(ctx, "3")
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("ListByOwner(unknown) = %#v, want empty non-nil slice", empty)
		}
	})

	t.Run("アイテムの追加・更新・削除", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		l := newList(t, repo, "1", "a")

		err := repo.WithLockedList(ctx, l.ID, func(list *model.ProblemList, m ListMutator) error {
			if list == nil {
				t.Fatal("expected locked list")
			}
			if list.UserID != "1" {
				t.Errorf("locked list owner = %q, want 1", list.UserID)
			}
			for _, p := range []string{"abc001_a", "abc001_b"} {
				inserted, err := m.AddItem(ctx, p)
				if err != nil {
					return err
				}
				if !inserted {
					t.Errorf("AddItem(%s) inserted = false, want true", p)
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithLockedList: %v", err)
		}

		err = repo.WithLockedList(ctx, l.ID, func(_ *model.ProblemList, m ListMutator) error {
			found, err := m.UpdateItemMemo(ctx, "abc001_a", "hard")
			if err != nil {
				return err
			}
			if !found {
				t.Error("UpdateItemMemo found = false, want true")
			}
			// 重複追加はメモを変更しない
			inserted, err := m.AddItem(ctx, "abc001_a")
			if err != nil {
				return err
			}
			if inserted {
				t.Error("duplicate AddItem inserted = true, want false")
			}
			found, err = m.UpdateItemMemo(ctx, "missing", "x")
			if err != nil {
				return err
			}
			if found {
				t.Error("UpdateItemMemo(missing) found = true, want false")
			}
			return m.DeleteItem(ctx, "abc001_b")
		})
		if err != nil {
			t.Fatalf("WithLockedList: %v", err)
		}

		got, err := repo.FindByID(ctx, l.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		want := []model.ListItem{{ListID: l.ID, ProblemID: "abc001_a", Memo: "hard"}}
		if len(got.Items) != len(want) || got.Items[0] != want[0] {
			t.Errorf("Items = %+v, want %+v", got.Items, want)
		}
	})

	t.Run("アイテムは追加順に並ぶ", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		l := newList(t, repo, "1", "a")

		problems := []string{"c", "a", "b"}
		for _, p := range problems {
			err := repo.WithLockedList(ctx, l.ID, func(_ *model.ProblemList, m ListMutator) error {
				_, err := m.AddItem(ctx, p)
				return err
			})
			if err != nil {
				t.Fatalf("AddItem(%s): %v", p, err)
			}
		}

		got, _ := repo.FindByID(ctx, l.ID)
		if len(got.Items) != len(problems) {
			t.Fatalf("len(Items) = %d, want %d", len(got.Items), len(problems))
		}
		for i, p := range problems {
			if got.Items[i].ProblemID != p {
				t.Errorf("Items[%d] = %q, want %q", i, got.Items[i].ProblemID, p)
			}
		}
	})

	t.Run("fnがエラーを返すと変更は破棄される", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		l := newList(t, repo, "1", "a")

		errAbort := errors.New("abort")
		err := repo.WithLockedList(ctx, l.ID, func(_ *model.ProblemList, m ListMutator) error {
			if err := m.Rename(ctx, "b"); err != nil {
				return err
			}
			if _, err := m.AddItem(ctx, "p"); err != nil {
				return err
			}
			return errAbort
		})
		if !errors.Is(err, errAbort) {
			t.Fatalf("err = %v, want %v", err, errAbort)
		}

		got, _ := repo.FindByID(ctx, l.ID)
		if got.Name != "a" {
			t.Errorf("Name = %q, want a", got.Name)
		}
		if len(got.Items) != 0 {
			t.Errorf("Items = %+v, want empty", got.Items)
		}
	})

	t.Run("削除するとアイテムごと消える", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		l := newList(t, repo, "1", "a")

		err := repo.WithLockedList(ctx, l.ID, func(_ *model.ProblemList, m ListMutator) error {
			if _, err := m.AddItem(ctx, "p"); err != nil {
				return err
			}
			return m.Delete(ctx)
		})
		if err != nil {
			t.Fatalf("WithLockedList: %v", err)
		}

		got, err := repo.FindByID(ctx, l.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got != nil {
			t.Errorf("FindByID after delete = %+v, want nil", got)
		}
		lists, _ := repo.ListByOwner(ctx, "1")
		if len(lists) != 0 {
			t.Errorf("ListByOwner after delete len = %d, want 0", len(lists))
		}

		called := false
		err = repo.WithLockedList(ctx, l.ID, func(list *model.ProblemList, m ListMutator) error {
			called = true
			if list != nil || m != nil {
				t.Error("expected nil list and mutator for deleted list")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithLockedList: %v", err)
		}
		if !called {
			t.Error("fn was not called for missing list")
		}
	})

	t.Run("並行削除では一方のみがリストを観測する", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")
		l := newList(t, repo, "1", "a")

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			observed int
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.WithLockedList(ctx, l.ID, func(list *model.ProblemList, m ListMutator) error {
					if list == nil {
						return nil
					}
					mu.Lock()
					observed++
					mu.Unlock()
					return m.Delete(ctx)
				})
				if err != nil {
					t.Errorf("WithLockedList: %v", err)
				}
			}()
		}
		wg.Wait()

		if observed != 1 {
			t.Errorf("observed = %d, want 1", observed)
		}
	})
}

// runSessionRepoContract はSessionRepositoryの実装が満たすべき振る舞いを検証する。
func runSessionRepoContract(t *testing.T, factory func(t *testing.T) (SessionRepository, func(id string))) {
	ctx := context.Background()

	t.Run("登録したセッションを取得できる", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("0")

		s := &model.Session{ID: "tok-1", UserID: "0", CreatedAt: time.Now()}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := repo.FindByID(ctx, "tok-1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got == nil || got.UserID != "0" {
			t.Fatalf("FindByID = %+v, want user 0", got)
		}
		if !got.ExpiresAt.IsZero() {
			t.Errorf("ExpiresAt = %v, want zero", got.ExpiresAt)
		}
	})

	t.Run("未知のトークンはnil", func(t *testing.T) {
		repo, _ := factory(t)
		got, err := repo.FindByID(ctx, "unknown")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got != nil {
			t.Errorf("FindByID = %+v, want nil", got)
		}
	})

	t.Run("同一ユーザーの複数セッションは独立している", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("7")

		for _, id := range []string{"a", "b"} {
			if err := repo.Create(ctx, &model.Session{ID: id, UserID: "7", CreatedAt: time.Now()}); err != nil {
				t.Fatalf("Create(%s): %v", id, err)
			}
		}
		if err := repo.DeleteByID(ctx, "a"); err != nil {
			t.Fatalf("DeleteByID: %v", err)
		}

		if got, _ := repo.FindByID(ctx, "a"); got != nil {
			t.Error("deleted session still found")
		}
		if got, _ := repo.FindByID(ctx, "b"); got == nil {
			t.Error("other session was removed")
		}
		if err := repo.DeleteByID(ctx, "a"); err != nil {
			t.Errorf("DeleteByID(missing): %v", err)
		}
	})

	t.Run("期限切れセッションは取得できずDeleteExpiredで消える", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("1")

		now := time.Now()
		expired := &model.Session{ID: "old", UserID: "1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
		live := &model.Session{ID: "new", UserID: "1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		forever := &model.Session{ID: "forever", UserID: "1", CreatedAt: now}
		for _, s := range []*model.Session{expired, live, forever} {
			if err := repo.Create(ctx, s); err != nil {
				t.Fatalf("Create(%s): %v", s.ID, err)
			}
		}

		if got, _ := repo.FindByID(ctx, "old"); got != nil {
			t.Error("expired session was returned")
		}

		n, err := repo.DeleteExpired(ctx, now)
		if err != nil {
			t.Fatalf("DeleteExpired: %v", err)
		}
		if n != 1 {
			t.Errorf("DeleteExpired = %d, want 1", n)
		}
		for _, id := range []string{"new", "forever"} {
			if got, _ := repo.FindByID(ctx, id); got == nil {
				t.Errorf("session %s was removed", id)
			}
		}
	})

	t.Run("並行した登録と取得が互いに干渉しない", func(t *testing.T) {
		repo, ensureUser := factory(t)
		ensureUser("9")

		const workers = 32
		var wg sync.WaitGroup
		errCh := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("concurrent-%d", i)
				if err := repo.Create(ctx, &model.Session{ID: id, UserID: "9", CreatedAt: time.Now()}); err != nil {
					errCh <- fmt.Errorf("Create(%s): %w", id, err)
					return
				}
				got, err := repo.FindByID(ctx, id)
				if err != nil {
					errCh <- fmt.Errorf("FindByID(%s): %w", id, err)
					return
				}
				if got == nil || got.ID != id || got.UserID != "9" {
					errCh <- fmt.Errorf("FindByID(%s) = %+v, want own session", id, got)
				}
			}(i)
		}
		wg.Wait()
		close(errCh)
		for err := range errCh {
			t.Error(err)
		}

		// 全セッションが失われずに残っている
		for i := 0; i < workers; i++ {
			id := fmt.Sprintf("concurrent-%d", i)
			if got, _ := repo.FindByID(ctx, id); got == nil {
				t.Errorf("session %s missing after concurrent inserts", id)
			}
		}
	})
}
