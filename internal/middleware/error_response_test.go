package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestWriteAPIError_StatusByKind(t *testing.T) {
	tests := []struct {
		name       string
		err        *model.APIError
		wantStatus int
		wantBody   string
	}{
		{
			name:       "検証エラー",
			err:        model.NewValidationError("Ingredient validation failed: name: Name is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Ingredient validation failed: name: Name is required"}`,
		},
		{
			name:       "未検出",
			err:        model.NewRecipeNotFoundError(),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"Recipe not found"}`,
		},
		{
			name:       "未認証",
			err:        model.NewUnauthorizedError(),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Unauthorized"}`,
		},
		{
			name:       "未知の種別",
			err:        &model.APIError{Kind: "SOMETHING", Message: "boom"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteAPIError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteInternalServerError_HidesDetail(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}

func TestWriteInternalServerErrorDetail(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerErrorDetail(w, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error","error":"connection refused"}`, w.Body.String())
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
