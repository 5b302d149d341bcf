package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// errInvalidRequestBody はJSONとして解釈できないリクエストボディを表す。
var errInvalidRequestBody = model.NewValidationError("Invalid request body")

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
// 空のボディや不正なJSONはerrInvalidRequestBodyを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return readJSONBody(w, r, v, false)
}

// decodePatch は更新用のボディをデコードする。空のボディは {} として扱う。
func decodePatch(w http.ResponseWriter, r *http.Request, v any) error {
	return readJSONBody(w, r, v, true)
}

func readJSONBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if allowEmpty {
			return nil
		}
	default:
		slog.Debug("failed to decode request body", slog.String("error", err.Error()))
	}
	return errInvalidRequestBody
}

// errorResponder はサービス層のエラーをHTTPレスポンスに変換する。
// exposeDetailが有効な場合（開発環境）は500レスポンスにエラー詳細を含める。
type errorResponder struct {
	exposeDetail bool
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func (e errorResponder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	if e.exposeDetail {
		middleware.WriteInternalServerErrorDetail(w, err)
		return
	}
	middleware.WriteInternalServerError(w)
}
