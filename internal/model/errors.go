package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, list, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeListNotFound       = "LIST_NOT_FOUND"
	ErrCodeListItemNotFound   = "LIST_ITEM_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUpstreamAuthFailed = "UPSTREAM_AUTH_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// HasCode はerrのチェーン中に指定コードのAPIErrorが含まれるかを返す。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError はリストの所有者以外が変更しようとした場合のエラーを生成する。
func NewForbiddenError(listID string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("このリストを変更する権限がありません: %s", listID),
		Category: "auth",
		Action:   "自分が作成したリストのみ変更できます。",
	}
}

// NewListNotFoundError はリストが見つからない場合のエラーを生成する。
func NewListNotFoundError(listID string) *APIError {
	return &APIError{
		Code:     ErrCodeListNotFound,
		Message:  fmt.Sprintf("指定されたリストが見つかりません: %s", listID),
		Category: "list",
		Action:   "リストIDを確認してください。",
	}
}

// NewListItemNotFoundError はリスト内に指定の問題が存在しない場合のエラーを生成する。
func NewListItemNotFoundError(listID, problemID string) *APIError {
	return &APIError{
		Code:     ErrCodeListItemNotFound,
		Message:  fmt.Sprintf("リスト %s に問題 %s は含まれていません。", listID, problemID),
		Category: "list",
		Action:   "先に問題をリストに追加してください。",
	}
}

// NewInvalidRequestError はリクエストの形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式で必須項目を指定してください。",
	}
}

// NewUpstreamAuthFailedError は外部IdPとの通信に失敗した場合のエラーを生成する。
func NewUpstreamAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamAuthFailed,
		Message:  "外部認証プロバイダーとの通信に失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
