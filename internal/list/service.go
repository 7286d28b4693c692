// Package list は問題リストとアイテムのドメインロジックを提供する。
// 変更操作は全て所有者チェックを通し、チェックと変更を同一のロック区間で行う。
package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/problemlist/internal/metrics"
	"github.com/hitoshi/problemlist/internal/model"
	"github.com/hitoshi/problemlist/internal/repository"
)

// メトリクスに記録する操作名
const (
	opCreate     = "create"
	opRename     = "rename"
	opDelete     = "delete"
	opAddItem    = "add_item"
	opUpdateItem = "update_item"
	opDeleteItem = "delete_item"
)

// Service は問題リスト管理のサービス層。
type Service struct {
	repo    repository.ProblemListRepository
	metrics metrics.MetricsCollector
	newID   func() string
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(repo repository.ProblemListRepository, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		repo:    repo,
		metrics: mc,
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}
}

// ListMine はユーザーが所有するリストをアイテム付きで作成順に返す。
// リストがない場合は空スライスを返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.ProblemList, error) {
	lists, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("リスト一覧の取得に失敗しました: %w", err)
	}
	if lists == nil {
		lists = []*model.ProblemList{}
	}
	return lists, nil
}

// Create はアイテムを持たない新しいリストを作成し、そのIDを返す。
func (s *Service) Create(ctx context.Context, userID, name string) (string, error) {
	list := &model.ProblemList{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Items:     []model.ListItem{},
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, list); err != nil {
		s.metrics.RecordListMutation(opCreate, outcomeOf(err))
		return "", fmt.Errorf("リストの作成に失敗しました: %w", err)
	}

	s.metrics.RecordListMutation(opCreate, outcomeOf(nil))
	slog.Info("problem list created",
		slog.String("user_id", userID),
		slog.String("list_id", list.ID),
	)
	return list.ID, nil
}

// GetByID はリストを取得する。所有者に関係なく誰でも参照できる。
func (s *Service) GetByID(ctx context.Context, listID string) (*model.ProblemList, error) {
	list, err := s.repo.FindByID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	if list == nil {
		return nil, model.NewListNotFoundError(listID)
	}
	return list, nil
}

// Rename はリスト名を変更する。
func (s *Service) Rename(ctx context.Context, userID, listID, name string) error {
	return s.withOwnedList(ctx, opRename, userID, listID, func(m repository.ListMutator) error {
		if err := m.Rename(ctx, name); err != nil {
			return fmt.Errorf("リスト名の変更に失敗しました: %w", err)
		}
		return nil
	})
}

// Delete はリストとその全アイテムを削除する。
func (s *Service) Delete(ctx context.Context, userID, listID string) error {
	err := s.withOwnedList(ctx, opDelete, userID, listID, func(m repository.ListMutator) error {
		if err := m.Delete(ctx); err != nil {
			return fmt.Errorf("リストの削除に失敗しました: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("problem list deleted",
		slog.String("user_id", userID),
		slog.String("list_id", listID),
	)
	return nil
}

// AddItem はリストに問題を空メモで追加する。
// 既に含まれている場合はメモを変更せずAddItemAlreadyPresentを返す。これはエラーではない。
func (s *Service) AddItem(ctx context.Context, userID, listID, problemID string) (model.AddItemOutcome, error) {
	var outcome model.AddItemOutcome
	err := s.repo.WithLockedList(ctx, listID, func(list *model.ProblemList, m repository.ListMutator) error {
		if err := authorize(userID, listID, list); err != nil {
			return err
		}
		inserted, err := m.AddItem(ctx, problemID)
		if err != nil {
			return fmt.Errorf("アイテムの追加に失敗しました: %w", err)
		}
		outcome = model.AddItemAlreadyPresent
		if inserted {
			outcome = model.AddItemInserted
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordListMutation(opAddItem, outcomeOf(err))
		return 0, err
	}

	s.metrics.RecordListMutation(opAddItem, outcome.String())
	return outcome, nil
}

// UpdateItemMemo はアイテムのメモを置き換える。
// リストに問題が含まれていない場合はLIST_ITEM_NOT_FOUNDを返す。
func (s *Service) UpdateItemMemo(ctx context.Context, userID, listID, problemID, memo string) error {
	return s.withOwnedList(ctx, opUpdateItem, userID, listID, func(m repository.ListMutator) error {
		found, err := m.UpdateItemMemo(ctx, problemID, memo)
		if err != nil {
			return fmt.Errorf("メモの更新に失敗しました: %w", err)
		}
		if !found {
			return model.NewListItemNotFoundError(listID, problemID)
		}
		return nil
	})
}

// DeleteItem はリストから問題を削除する。含まれていない場合も成功とする。
func (s *Service) DeleteItem(ctx context.Context, userID, listID, problemID string) error {
	return s.withOwnedList(ctx, opDeleteItem, userID, listID, func(m repository.ListMutator) error {
		if err := m.DeleteItem(ctx, problemID); err != nil {
			return fmt.Errorf("アイテムの削除に失敗しました: %w", err)
		}
		return nil
	})
}

// withOwnedList はリストをロックし、所有者チェックを通過した場合のみfnを実行する。
func (s *Service) withOwnedList(ctx context.Context, op, userID, listID string, fn func(m repository.ListMutator) error) error {
	err := s.repo.WithLockedList(ctx, listID, func(list *model.ProblemList, m repository.ListMutator) error {
		if err := authorize(userID, listID, list); err != nil {
			return err
		}
		return fn(m)
	})
	s.metrics.RecordListMutation(op, outcomeOf(err))
	return err
}

// authorize はリストが存在し、userIDが所有者であることを確認する。
// 存在確認を先に行うため、存在しないリストは所有者に関係なくLIST_NOT_FOUNDになる。
func authorize(userID, listID string, list *model.ProblemList) error {
	if list == nil {
		return model.NewListNotFoundError(listID)
	}
	if list.UserID != userID {
		return model.NewForbiddenError(listID)
	}
	return nil
}

// outcomeOf はエラーをメトリクスのラベル値に変換する。
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Code {
	case model.ErrCodeForbidden:
		return "forbidden"
	case model.ErrCodeListNotFound, model.ErrCodeListItemNotFound:
		return "not_found"
	default:
		return "error"
	}
}
