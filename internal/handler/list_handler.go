package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/problemlist/internal/middleware"
	"github.com/hitoshi/problemlist/internal/model"
)

// ListServiceInterface はリストハンドラーが必要とするサービスインターフェース。
type ListServiceInterface interface {
	ListMine(ctx context.Context, userID string) ([]*model.ProblemList, error)
	Create(ctx context.Context, userID, name string) (string, error)
	GetByID(ctx context.Context, listID string) (*model.ProblemList, error)
	Rename(ctx context.Context, userID, listID, name string) error
	Delete(ctx context.Context, userID, listID string) error
	AddItem(ctx context.Context, userID, listID, problemID string) (model.AddItemOutcome, error)
	UpdateItemMemo(ctx context.Context, userID, listID, problemID, memo string) error
	DeleteItem(ctx context.Context, userID, listID, problemID string) error
}

// ListHandler は問題リスト管理のHTTPハンドラー。
type ListHandler struct {
	service   ListServiceInterface
	validator *requestValidator
}

// NewListHandler はListHandlerを生成する。
func NewListHandler(service ListServiceInterface) *ListHandler {
	return &ListHandler{
		service:   service,
		validator: newRequestValidator(),
	}
}

type createListRequest struct {
	ListName string `json:"list_name" validate:"required,max=256"`
}

type createListResponse struct {
	InternalListID string `json:"internal_list_id"`
}

type updateListRequest struct {
	InternalListID string `json:"internal_list_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=256"`
}

type deleteListRequest struct {
	InternalListID string `json:"internal_list_id" validate:"required"`
}

type addItemRequest struct {
	InternalListID string `json:"internal_list_id" validate:"required"`
	ProblemID      string `json:"problem_id" validate:"required,max=255"`
}

type updateItemRequest struct {
	InternalListID string `json:"internal_list_id" validate:"required"`
	ProblemID      string `json:"problem_id" validate:"required,max=255"`
	Memo           string `json:"memo" validate:"max=4096"`
}

type deleteItemRequest struct {
	InternalListID string `json:"internal_list_id" validate:"required"`
	ProblemID      string `json:"problem_id" validate:"required,max=255"`
}

// listResponse はリストのAPIレスポンス。itemsは常に配列。
type listResponse struct {
	InternalListID   string         `json:"internal_list_id"`
	InternalUserID   string         `json:"internal_user_id"`
	InternalListName string         `json:"internal_list_name"`
	Items            []itemResponse `json:"items"`
}

type itemResponse struct {
	ProblemID string `json:"problem_id"`
	Memo      string `json:"memo"`
}

// ListMine はログインユーザーのリスト一覧を返す。
// GET /internal-api/list/my
func (h *ListHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	lists, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		resp = append(resp, toListResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は新しいリストを作成する。
// POST /internal-api/list/create
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createListRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	listID, err := h.service.Create(r.Context(), userID, req.ListName)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createListResponse{InternalListID: listID})
}

// Get はリストを返す。ログイン不要。
// GET /internal-api/list/get/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "id")

	list, err := h.service.GetByID(r.Context(), listID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(list))
}

// Update はリスト名を変更する。
// POST /internal-api/list/update
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updateListRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Rename(r.Context(), userID, req.InternalListID, req.Name); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete はリストを削除する。
// POST /internal-api/list/delete
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req deleteListRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, req.InternalListID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AddItem はリストに問題を追加する。既に含まれている場合も成功を返す。
// POST /internal-api/list/item/add
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.service.AddItem(r.Context(), userID, req.InternalListID, req.ProblemID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateItem はアイテムのメモを更新する。
// POST /internal-api/list/item/update
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.UpdateItemMemo(r.Context(), userID, req.InternalListID, req.ProblemID, req.Memo); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteItem はリストから問題を削除する。
// POST /internal-api/list/item/delete
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req deleteItemRequest
	if err := h.validator.decode(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteItem(r.Context(), userID, req.InternalListID, req.ProblemID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// requireUser はコンテキストから認証済みユーザーIDを取り出す。
// 取り出せない場合は401を書き込みfalseを返す。
func (h *ListHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

func toListResponse(l *model.ProblemList) listResponse {
	items := make([]itemResponse, 0, len(l.Items))
	for _, it := range l.Items {
		items = append(items, itemResponse{ProblemID: it.ProblemID, Memo: it.Memo})
	}
	return listResponse{
		InternalListID:   l.ID,
		InternalUserID:   l.UserID,
		InternalListName: l.Name,
		Items:            items,
	}
}
