// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDは外部IdP（GitHub）の数値IDを10進文字列にしたもの。
type User struct {
	ID        string
	CreatedAt time.Time
}

// ExternalIdentity は外部IdPから取得したユーザー識別子を表す。
// 内部ユーザーへの対応付けにのみ使用し、永続化しない。
type ExternalIdentity struct {
	ID int64
}

// Session はユーザーのログインセッションを表す。
// IDはクライアントがCookieで提示する不透明なトークンそのもの。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time // ゼロ値の場合は無期限
	CreatedAt time.Time
}

// IsExpired はセッションが指定時刻の時点で期限切れかどうかを返す。
// ExpiresAtがゼロ値のセッションは期限切れにならない。
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
