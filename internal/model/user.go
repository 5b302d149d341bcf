// Package model はドメインモデルを定義する。
package model

import "time"

// Identity はGitHubログインで確定したユーザーの身元を表す。
// OAuthコールバックの境界で一度だけ組み立てられる。
type Identity struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Name は表示用の名前を返す。ユーザー名が空の場合は表示名を使う。
func (i Identity) Name() string {
	if i.Username != "" {
		return i.Username
	}
	return i.DisplayName
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はnow時点でセッションが期限切れかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
