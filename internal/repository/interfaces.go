// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/recipebox/internal/model"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しなかったことを表す。
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation は一意制約違反を表す。
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// IngredientRepository は食材データの永続化インターフェース。
type IngredientRepository interface {
	// List は全食材を返す。
	List(ctx context.Context) ([]*model.Ingredient, error)
	// FindByID は指定IDの食材を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ingredient, error)
	// FindByName は名前が完全一致する食材を取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Ingredient, error)
	// FindByIDs は指定IDのうち存在する食材をまとめて取得する。レシピの参照展開に使う。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Ingredient, error)
	// Create は食材を作成する。名前が重複する場合はErrUniqueViolationを返す。
	Create(ctx context.Context, ingredient *model.Ingredient) error
	// Update は食材を上書き更新する。id・created_atは変更しない。
	Update(ctx context.Context, ingredient *model.Ingredient) error
	// DeleteByID は指定IDの食材を削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// RecipeRepository はレシピデータの永続化インターフェース。
// 食材行は参照IDのまま保存され、展開はサービス層で行う。
type RecipeRepository interface {
	List(ctx context.Context) ([]*model.Recipe, error)
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)
	Create(ctx context.Context, recipe *model.Recipe) error
	// Update はレシピを1文で上書き更新する。
	Update(ctx context.Context, recipe *model.Recipe) error
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
