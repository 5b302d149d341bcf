package middleware

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hitoshi/recipebox/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// Errorは開発環境でのみ設定される。
type ErrorResponseBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON は値をJSONとしてレスポンスに書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponseBody{Message: message})
}

// WriteAPIError はAPIErrorの種別に対応するステータスでレスポンスを書き込む。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusForKind(apiErr.Kind), apiErr.Message)
}

// StatusForKind はエラー種別をHTTPステータスに変換する。
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrKindValidationFailed:
		return http.StatusBadRequest
	case model.ErrKindNotFound:
		return http.StatusNotFound
	case model.ErrKindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}

// WriteInternalServerErrorDetail は開発環境向けにエラー詳細を含めた500レスポンスを書き込む。
func WriteInternalServerErrorDetail(w http.ResponseWriter, err error) {
	WriteJSON(w, http.StatusInternalServerError, ErrorResponseBody{
		Message: "Internal server error",
		Error:   err.Error(),
	})
}
