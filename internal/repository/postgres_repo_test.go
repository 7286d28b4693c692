package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/hitoshi/problemlist/internal/database"
)

// PostgreSQL実装がインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ ProblemListRepository = (*PostgresListRepo)(nil)
}

// setupPostgres はマイグレーション済みの空のDBを返す。
// TEST_DATABASE_URLが未設定、または接続できない場合はスキップする。
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE internal_users CASCADE`); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}
	return db
}

func ensureUserFunc(t *testing.T, db *sql.DB) func(string) {
	users := NewPostgresUserRepo(db)
	return func(id string) {
		t.Helper()
		if err := users.EnsureExists(context.Background(), id); err != nil {
			t.Fatalf("EnsureExists(%s): %v", id, err)
		}
	}
}

func TestPostgresListRepo_Contract(t *testing.T) {
	runListRepoContract(t, func(t *testing.T) (ProblemListRepository, func(string)) {
		db := setupPostgres(t)
		return NewPostgresListRepo(db), ensureUserFunc(t, db)
	})
}

func TestPostgresSessionRepo_Contract(t *testing.T) {
	runSessionRepoContract(t, func(t *testing.T) (SessionRepository, func(string)) {
		db := setupPostgres(t)
		return NewPostgresSessionRepo(db), ensureUserFunc(t, db)
	})
}

func TestPostgresUserRepo_EnsureExists_Idempotent(t *testing.T) {
	db := setupPostgres(t)
	repo := NewPostgresUserRepo(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.EnsureExists(ctx, "0"); err != nil {
			t.Fatalf("EnsureExists #%d: %v", i+1, err)
		}
	}

	u, err := repo.FindByID(ctx, "0")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if u == nil || u.ID != "0" {
		t.Errorf("FindByID = %+v, want user 0", u)
	}

	missing, err := repo.FindByID(ctx, "404")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if missing != nil {
		t.Errorf("FindByID(missing) = %+v, want nil", missing)
	}
}
