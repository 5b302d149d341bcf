// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はAPIエラーの分類を表す。
type ErrorKind string

const (
	// ErrKindValidationFailed は入力の欠落・不正・範囲外を表す（400）。
	ErrKindValidationFailed ErrorKind = "VALIDATION_FAILED"
	// ErrKindNotFound は存在しないIDへのアクセスを表す（404）。
	ErrKindNotFound ErrorKind = "NOT_FOUND"
	// ErrKindUnauthorized は未認証またはセッション切れを表す（401）。
	ErrKindUnauthorized ErrorKind = "UNAUTHORIZED"
)

// APIError はクライアントに返すエラーを表す。
// これ以外のエラーはすべてUpstreamFailure（500）として扱われる。
type APIError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewValidationError は検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{Kind: ErrKindValidationFailed, Message: message}
}

// NewIngredientNotFoundError は食材未検出エラーを生成する。
func NewIngredientNotFoundError() *APIError {
	return &APIError{Kind: ErrKindNotFound, Message: "Ingredient not found"}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
func NewRecipeNotFoundError() *APIError {
	return &APIError{Kind: ErrKindNotFound, Message: "Recipe not found"}
}

// NewDuplicateIngredientNameError は食材名の重複エラーを生成する。
func NewDuplicateIngredientNameError(name string) *APIError {
	return NewValidationError(fmt.Sprintf("Ingredient validation failed: name: Ingredient name %q already exists", name))
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{Kind: ErrKindUnauthorized, Message: "Unauthorized"}
}
